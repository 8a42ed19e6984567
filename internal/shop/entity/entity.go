package entity

import "gorm.io/gorm"

// AutoMigrate creates/updates all shop tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{},
		&Mechanic{},
		&Part{},
		&StockMovement{},
		&JobCard{},
		&JobCardPart{},
		&LaborEntry{},
	)
}
