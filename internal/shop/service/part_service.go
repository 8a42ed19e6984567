package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/torquelab/garage-erp/internal/shop/entity"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"gorm.io/gorm"
)

const (
	partCacheKeyPrefix = "shop:part:"
	partAlertsCacheKey = "shop:part_alerts"
	partCacheTTL       = 5 * time.Minute
	alertsCacheTTL     = 30 * time.Second
)

// PartService 配件目录服务 — catalog CRUD, low-stock alerts, stock movement
// history and manual adjustments. Job card reservations go through
// JobCardService, not here.
type PartService struct {
	repo *repository.PartRepository
	db   *gorm.DB
	rdb  *redis.Client
}

func NewPartService(repo *repository.PartRepository, db *gorm.DB, rdb *redis.Client) *PartService {
	return &PartService{repo: repo, db: db, rdb: rdb}
}

type CreatePartRequest struct {
	PartNo        string  `json:"part_no" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Category      string  `json:"category"`
	UnitPrice     float64 `json:"unit_price"`
	StockQuantity int     `json:"stock_quantity" binding:"gte=0"`
	MinStockLevel int     `json:"min_stock_level" binding:"gte=0"`
	Unit          string  `json:"unit"`
	Location      string  `json:"location"`
	SupplierName  string  `json:"supplier_name"`
}

func (s *PartService) Create(ctx context.Context, req CreatePartRequest, userID string) (*entity.Part, error) {
	part := &entity.Part{
		ID:            uuid.New().String(),
		PartNo:        req.PartNo,
		Name:          req.Name,
		Category:      req.Category,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
		MinStockLevel: req.MinStockLevel,
		Unit:          req.Unit,
		Location:      req.Location,
		SupplierName:  req.SupplierName,
	}
	if part.Unit == "" {
		part.Unit = "pcs"
	}
	if err := s.repo.Create(ctx, part); err != nil {
		return nil, err
	}
	if req.StockQuantity > 0 {
		// Opening balance shows up in the movement history like any inbound.
		mv := &entity.StockMovement{
			ID:            uuid.New().String(),
			PartID:        part.ID,
			PartNo:        part.PartNo,
			PartName:      part.Name,
			Quantity:      req.StockQuantity,
			ReferenceType: entity.MovementRefAdjust,
			ReferenceID:   part.ID,
			Notes:         "opening stock",
			CreatedBy:     userID,
		}
		if err := s.repo.CreateMovement(ctx, s.db, mv); err != nil {
			return nil, err
		}
	}
	s.invalidateCache(ctx, part.ID)
	return part, nil
}

type UpdatePartRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	UnitPrice     *float64 `json:"unit_price"`
	MinStockLevel *int     `json:"min_stock_level"`
	Unit          *string  `json:"unit"`
	Location      *string  `json:"location"`
	SupplierName  *string  `json:"supplier_name"`
}

// Update 更新配件档案字段。Stock quantity is deliberately absent here: it
// only moves through Adjust or a job card reconciliation.
func (s *PartService) Update(ctx context.Context, id string, req UpdatePartRequest) (*entity.Part, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &PartNotFoundError{PartID: id}
		}
		return nil, err
	}

	if req.Name != nil {
		part.Name = *req.Name
	}
	if req.Category != nil {
		part.Category = *req.Category
	}
	if req.UnitPrice != nil {
		part.UnitPrice = *req.UnitPrice
	}
	if req.MinStockLevel != nil {
		part.MinStockLevel = *req.MinStockLevel
	}
	if req.Unit != nil {
		part.Unit = *req.Unit
	}
	if req.Location != nil {
		part.Location = *req.Location
	}
	if req.SupplierName != nil {
		part.SupplierName = *req.SupplierName
	}

	if err := s.repo.Update(ctx, part); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, part.ID)
	return part, nil
}

// GetByID 查询配件，带cache-aside缓存
func (s *PartService) GetByID(ctx context.Context, id string) (*entity.Part, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, partCacheKeyPrefix+id).Bytes(); err == nil {
			var part entity.Part
			if json.Unmarshal(raw, &part) == nil {
				return &part, nil
			}
		}
	}

	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &PartNotFoundError{PartID: id}
		}
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(part); err == nil {
			s.rdb.Set(ctx, partCacheKeyPrefix+id, raw, partCacheTTL)
		}
	}
	return part, nil
}

func (s *PartService) List(ctx context.Context, params repository.PartListParams) ([]entity.Part, int64, error) {
	return s.repo.List(ctx, params)
}

// GetAlerts 低库存预警，短TTL缓存
func (s *PartService) GetAlerts(ctx context.Context) ([]entity.Part, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, partAlertsCacheKey).Bytes(); err == nil {
			var parts []entity.Part
			if json.Unmarshal(raw, &parts) == nil {
				return parts, nil
			}
		}
	}

	parts, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(parts); err == nil {
			s.rdb.Set(ctx, partAlertsCacheKey, raw, alertsCacheTTL)
		}
	}
	return parts, nil
}

func (s *PartService) ListMovements(ctx context.Context, partID string, page, size int) ([]entity.StockMovement, int64, error) {
	return s.repo.ListMovements(ctx, partID, page, size)
}

type AdjustStockRequest struct {
	Quantity int    `json:"quantity" binding:"required"` // signed, positive = add stock
	Reason   string `json:"reason" binding:"required"`
}

// Adjust 手工盘点调整 — same atomic conditional update as the reconciler
// path, so a correction can never take stock below zero either.
func (s *PartService) Adjust(ctx context.Context, id string, req AdjustStockRequest, userID string) (*entity.Part, error) {
	var part *entity.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.AdjustStock(ctx, tx, id, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			p, perr := s.repo.FindByIDTx(ctx, tx, id)
			if perr != nil {
				if errors.Is(perr, repository.ErrNotFound) {
					return &PartNotFoundError{PartID: id}
				}
				return perr
			}
			return &InsufficientStockError{PartID: id, Available: p.StockQuantity, Requested: -req.Quantity}
		}

		p, err := s.repo.FindByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		part = p

		mv := &entity.StockMovement{
			ID:            uuid.New().String(),
			PartID:        id,
			PartNo:        p.PartNo,
			PartName:      p.Name,
			Quantity:      req.Quantity,
			ReferenceType: entity.MovementRefAdjust,
			ReferenceID:   uuid.New().String(),
			Notes:         req.Reason,
			CreatedBy:     userID,
		}
		return s.repo.CreateMovement(ctx, tx, mv)
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	s.invalidateCache(ctx, id)
	return part, nil
}

func (s *PartService) invalidateCache(ctx context.Context, id string) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, partCacheKeyPrefix+id, partAlertsCacheKey)
}
