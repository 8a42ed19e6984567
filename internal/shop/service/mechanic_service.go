package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/torquelab/garage-erp/internal/shop/entity"
	"github.com/torquelab/garage-erp/internal/shop/repository"
)

var ErrMechanicNotFound = errors.New("mechanic not found")

// MechanicService 技师服务
type MechanicService struct {
	repo *repository.MechanicRepository
}

func NewMechanicService(repo *repository.MechanicRepository) *MechanicService {
	return &MechanicService{repo: repo}
}

type CreateMechanicRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
}

func (s *MechanicService) Create(ctx context.Context, req CreateMechanicRequest) (*entity.Mechanic, error) {
	m := &entity.Mechanic{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Specialty: req.Specialty,
		Status:    entity.MechanicStatusActive,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type UpdateMechanicRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Specialty *string `json:"specialty"`
	Status    *string `json:"status"`
}

func (s *MechanicService) Update(ctx context.Context, id string, req UpdateMechanicRequest) (*entity.Mechanic, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMechanicNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.Specialty != nil {
		m.Specialty = *req.Specialty
	}
	if req.Status != nil {
		if *req.Status != entity.MechanicStatusActive && *req.Status != entity.MechanicStatusInactive {
			return nil, &ValidationError{Reason: "invalid status: " + *req.Status}
		}
		m.Status = *req.Status
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MechanicService) List(ctx context.Context, status string) ([]entity.Mechanic, error) {
	return s.repo.List(ctx, status)
}
