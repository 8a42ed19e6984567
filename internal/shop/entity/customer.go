package entity

import "time"

// Customer 客户档案
type Customer struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Phone     string     `json:"phone" gorm:"size:32;index"`
	Email     string     `json:"email" gorm:"size:128"`
	Address   string     `json:"address" gorm:"size:255"`
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Customer) TableName() string {
	return "shop_customers"
}
