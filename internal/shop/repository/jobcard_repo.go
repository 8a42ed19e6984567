package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torquelab/garage-erp/internal/shop/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobCardRepository 维修工单仓库
type JobCardRepository struct {
	db *gorm.DB
}

func NewJobCardRepository(db *gorm.DB) *JobCardRepository {
	return &JobCardRepository{db: db}
}

// FindByID 根据ID查找工单（含配件与工时行项）
func (r *JobCardRepository) FindByID(ctx context.Context, id string) (*entity.JobCard, error) {
	var jc entity.JobCard
	err := r.db.WithContext(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Labor", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&jc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &jc, nil
}

// FindByIDForUpdate locks the job card row for the duration of the open
// transaction so concurrent parts updates to the same card serialize.
func (r *JobCardRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.JobCard, error) {
	var jc entity.JobCard
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&jc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.WithContext(ctx).
		Where("job_card_id = ?", id).
		Order("sort_order ASC").
		Find(&jc.Parts).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).
		Where("job_card_id = ?", id).
		Order("sort_order ASC").
		Find(&jc.Labor).Error; err != nil {
		return nil, err
	}
	return &jc, nil
}

type JobCardListParams struct {
	Status     string
	CustomerID string
	MechanicID string
	Keyword    string
	Page       int
	Size       int
}

// List 工单列表
func (r *JobCardRepository) List(ctx context.Context, params JobCardListParams) ([]entity.JobCard, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.JobCard{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.MechanicID != "" {
		query = query.Where("mechanic_id = ?", params.MechanicID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("job_no ILIKE ? OR vehicle_reg ILIKE ? OR complaint ILIKE ?", kw, kw, kw)
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
	var cards []entity.JobCard
	err := query.
		Preload("Parts").
		Preload("Labor").
		Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).
		Limit(params.Size).
		Find(&cards).Error
	return cards, total, err
}

// Create 创建工单及行项
func (r *JobCardRepository) Create(ctx context.Context, tx *gorm.DB, jc *entity.JobCard) error {
	return tx.WithContext(ctx).Create(jc).Error
}

// Update 更新工单主记录（不触碰行项）
func (r *JobCardRepository) Update(ctx context.Context, tx *gorm.DB, jc *entity.JobCard) error {
	return tx.WithContext(ctx).Omit("Parts", "Labor").Save(jc).Error
}

// ReplaceParts swaps the card's parts list for the given one inside the
// caller's transaction.
func (r *JobCardRepository) ReplaceParts(ctx context.Context, tx *gorm.DB, jobCardID string, parts []entity.JobCardPart) error {
	if err := tx.WithContext(ctx).
		Where("job_card_id = ?", jobCardID).
		Delete(&entity.JobCardPart{}).Error; err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&parts).Error
}

// ReplaceLabor swaps the card's labor entries inside the caller's transaction.
func (r *JobCardRepository) ReplaceLabor(ctx context.Context, tx *gorm.DB, jobCardID string, labor []entity.LaborEntry) error {
	if err := tx.WithContext(ctx).
		Where("job_card_id = ?", jobCardID).
		Delete(&entity.LaborEntry{}).Error; err != nil {
		return err
	}
	if len(labor) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&labor).Error
}

// Delete 删除工单及行项
func (r *JobCardRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	if err := tx.WithContext(ctx).Where("job_card_id = ?", id).Delete(&entity.JobCardPart{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("job_card_id = ?", id).Delete(&entity.LaborEntry{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&entity.JobCard{}).Error
}

// NextJobNo 生成工单编号 JC-{yyyyMMdd}-{4位}
func (r *JobCardRepository) NextJobNo(ctx context.Context) (string, error) {
	day := time.Now().Format("20060102")
	prefix := fmt.Sprintf("JC-%s-", day)

	var maxNo string
	err := r.db.WithContext(ctx).
		Model(&entity.JobCard{}).
		Select("COALESCE(MAX(job_no), '')").
		Where("job_no LIKE ?", prefix+"%").
		Scan(&maxNo).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNo != "" {
		fmt.Sscanf(maxNo, "JC-"+day+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("JC-%s-%04d", day, seq), nil
}
