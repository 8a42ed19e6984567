package repository

import (
	"context"
	"errors"

	"github.com/torquelab/garage-erp/internal/shop/entity"
	"gorm.io/gorm"
)

// MechanicRepository 技师仓库
type MechanicRepository struct {
	db *gorm.DB
}

func NewMechanicRepository(db *gorm.DB) *MechanicRepository {
	return &MechanicRepository{db: db}
}

func (r *MechanicRepository) FindByID(ctx context.Context, id string) (*entity.Mechanic, error) {
	var m entity.Mechanic
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MechanicRepository) Create(ctx context.Context, m *entity.Mechanic) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MechanicRepository) Update(ctx context.Context, m *entity.Mechanic) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// List 技师列表
func (r *MechanicRepository) List(ctx context.Context, status string) ([]entity.Mechanic, error) {
	query := r.db.WithContext(ctx).Model(&entity.Mechanic{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var mechanics []entity.Mechanic
	err := query.Order("name ASC").Find(&mechanics).Error
	return mechanics, err
}
