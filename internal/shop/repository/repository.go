package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Part     *PartRepository
	JobCard  *JobCardRepository
	Customer *CustomerRepository
	Mechanic *MechanicRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:     NewPartRepository(db),
		JobCard:  NewJobCardRepository(db),
		Customer: NewCustomerRepository(db),
		Mechanic: NewMechanicRepository(db),
	}
}
