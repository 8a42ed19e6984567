package entity

import "time"

const (
	MechanicStatusActive   = "active"
	MechanicStatusInactive = "inactive"
)

// Mechanic 技师档案 — workshop staff a job card can be assigned to.
type Mechanic struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Phone     string    `json:"phone" gorm:"size:32"`
	Specialty string    `json:"specialty" gorm:"size:64"`
	Status    string    `json:"status" gorm:"size:20;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Mechanic) TableName() string {
	return "shop_mechanics"
}
