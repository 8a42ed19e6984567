package repository

import (
	"context"
	"errors"

	"github.com/torquelab/garage-erp/internal/shop/entity"
	"gorm.io/gorm"
)

// PartRepository 配件仓库
type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FindByID 根据ID查找配件
func (r *PartRepository) FindByID(ctx context.Context, id string) (*entity.Part, error) {
	return findPart(r.db.WithContext(ctx), id)
}

// FindByIDTx reads a part through an open transaction, used to report the
// available quantity after a conditional stock update matched no rows.
func (r *PartRepository) FindByIDTx(ctx context.Context, tx *gorm.DB, id string) (*entity.Part, error) {
	return findPart(tx.WithContext(ctx), id)
}

func findPart(db *gorm.DB, id string) (*entity.Part, error) {
	var part entity.Part
	err := db.Where("id = ? AND deleted_at IS NULL", id).First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// FindByIDs 批量查找配件
func (r *PartRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.Part, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var parts []entity.Part
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&parts).Error
	return parts, err
}

func (r *PartRepository) Create(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}

func (r *PartRepository) Update(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).Save(part).Error
}

// AdjustStock applies a signed stock delta as a single conditional update so
// two concurrent writers can never interleave a read-then-write. Zero rows
// affected means the adjustment would drive the stock below zero.
func (r *PartRepository) AdjustStock(ctx context.Context, tx *gorm.DB, partID string, delta int) (bool, error) {
	res := tx.WithContext(ctx).Model(&entity.Part{}).
		Where("id = ? AND deleted_at IS NULL AND stock_quantity + ? >= 0", partID, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateMovement 记录库存流水
func (r *PartRepository) CreateMovement(ctx context.Context, tx *gorm.DB, m *entity.StockMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

type PartListParams struct {
	Category string
	Keyword  string
	LowStock bool
	Page     int
	Size     int
}

// List 配件列表
func (r *PartRepository) List(ctx context.Context, params PartListParams) ([]entity.Part, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Part{}).Where("deleted_at IS NULL")
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("part_no ILIKE ? OR name ILIKE ?", kw, kw)
	}
	if params.LowStock {
		query = query.Where("stock_quantity < min_stock_level AND min_stock_level > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var parts []entity.Part
	err := query.Order("part_no ASC").
		Offset((params.Page - 1) * params.Size).
		Limit(params.Size).
		Find(&parts).Error
	return parts, total, err
}

// LowStock 获取低于安全库存的配件
func (r *PartRepository) LowStock(ctx context.Context) ([]entity.Part, error) {
	var parts []entity.Part
	err := r.db.WithContext(ctx).
		Where("stock_quantity < min_stock_level AND min_stock_level > 0 AND deleted_at IS NULL").
		Order("part_no ASC").
		Find(&parts).Error
	return parts, err
}

// ListMovements 库存流水列表
func (r *PartRepository) ListMovements(ctx context.Context, partID string, page, size int) ([]entity.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.StockMovement{})
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var movements []entity.StockMovement
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&movements).Error
	return movements, total, err
}
