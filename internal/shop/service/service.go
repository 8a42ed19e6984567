package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	JobCard  *JobCardService
	Part     *PartService
	Customer *CustomerService
	Mechanic *MechanicService
	Billing  *BillingService
}

// NewServices 创建服务集合。rdb may be nil; caching is then skipped.
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client) *Services {
	return &Services{
		JobCard:  NewJobCardService(repos.JobCard, repos.Part, db),
		Part:     NewPartService(repos.Part, db, rdb),
		Customer: NewCustomerService(repos.Customer),
		Mechanic: NewMechanicService(repos.Mechanic),
		Billing:  NewBillingService(repos.JobCard),
	}
}
