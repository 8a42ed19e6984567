package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/torquelab/garage-erp/internal/shop/entity"
	"github.com/torquelab/garage-erp/internal/shop/inventory"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"gorm.io/gorm"
)

// JobCardService 维修工单服务 — owns the job card lifecycle and keeps part
// stock consistent with the quantities the cards reserve. Every
// stock-affecting operation runs as one transaction: lock the card row,
// reconcile, apply per-part conditional stock updates, persist the new
// parts list. Either all of it commits or none of it does.
type JobCardService struct {
	jcRepo   *repository.JobCardRepository
	partRepo *repository.PartRepository
	db       *gorm.DB
}

func NewJobCardService(jcRepo *repository.JobCardRepository, partRepo *repository.PartRepository, db *gorm.DB) *JobCardService {
	return &JobCardService{jcRepo: jcRepo, partRepo: partRepo, db: db}
}

// PartLine 请求中的配件行项
type PartLine struct {
	PartID   string `json:"part_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// LaborLine 请求中的工时行项
type LaborLine struct {
	Description string  `json:"description" binding:"required"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
}

type CreateJobCardRequest struct {
	CustomerID   string      `json:"customer_id" binding:"required"`
	VehicleReg   string      `json:"vehicle_reg"`
	VehicleModel string      `json:"vehicle_model"`
	ServiceType  string      `json:"service_type"`
	Complaint    string      `json:"complaint"`
	MechanicID   string      `json:"mechanic_id"`
	Discount     float64     `json:"discount"`
	Notes        string      `json:"notes"`
	PartsUsed    []PartLine  `json:"parts_used"`
	LaborEntries []LaborLine `json:"labor_entries"`
}

// Create 开单 — reserves the requested parts atomically with the card
// creation. On insufficient stock nothing is created and nothing is
// deducted.
func (s *JobCardService) Create(ctx context.Context, req CreateJobCardRequest, userID string) (*entity.JobCard, error) {
	incoming, err := inventory.Normalize(toInventoryLines(req.PartsUsed))
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	catalog, err := s.loadCatalog(ctx, mapKeys(incoming))
	if err != nil {
		return nil, err
	}

	delta, next, err := inventory.Reconcile(nil, incoming, inventory.ModeReplace)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	jobNo, err := s.jcRepo.NextJobNo(ctx)
	if err != nil {
		return nil, err
	}

	jc := &entity.JobCard{
		ID:           uuid.New().String(),
		JobNo:        jobNo,
		CustomerID:   req.CustomerID,
		VehicleReg:   req.VehicleReg,
		VehicleModel: req.VehicleModel,
		ServiceType:  req.ServiceType,
		Complaint:    req.Complaint,
		Status:       entity.JobCardStatusOpen,
		MechanicID:   req.MechanicID,
		Discount:     req.Discount,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	jc.Parts = buildPartItems(jc.ID, next, nil, requestOrder(req.PartsUsed), catalog)
	jc.Labor = buildLaborItems(jc.ID, req.LaborEntries)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		info := partInfoFrom(catalog, nil)
		if err := s.applyDeltas(ctx, tx, jc.ID, jc.JobNo, delta, info, userID); err != nil {
			return err
		}
		return s.jcRepo.Create(ctx, tx, jc)
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return jc, nil
}

type UpdateJobCardPartsRequest struct {
	PartsUsed  []PartLine `json:"parts_used"`
	UpdateMode string     `json:"update_mode"`
}

// UpdateParts 调整工单配件 — the only path that routes through the
// reconciler. Mode add layers quantities on, update sets absolute
// quantities for the named parts, replace swaps the whole list.
func (s *JobCardService) UpdateParts(ctx context.Context, id string, req UpdateJobCardPartsRequest, userID string) (*entity.JobCard, error) {
	mode, err := inventory.ParseMode(req.UpdateMode)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	incoming, err := inventory.Normalize(toInventoryLines(req.PartsUsed))
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	catalog, err := s.loadCatalog(ctx, mapKeys(incoming))
	if err != nil {
		return nil, err
	}

	var result *entity.JobCard
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jc, err := s.jcRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrJobCardNotFound
			}
			return err
		}

		old := partsToMap(jc.Parts)
		delta, next, rerr := inventory.Reconcile(old, incoming, mode)
		if rerr != nil {
			return &ValidationError{Reason: rerr.Error()}
		}

		info := partInfoFrom(catalog, jc.Parts)
		if err := s.applyDeltas(ctx, tx, jc.ID, jc.JobNo, delta, info, userID); err != nil {
			return err
		}

		items := buildPartItems(jc.ID, next, jc.Parts, requestOrder(req.PartsUsed), catalog)
		if err := s.jcRepo.ReplaceParts(ctx, tx, jc.ID, items); err != nil {
			return err
		}
		jc.Parts = items
		result = jc
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return result, nil
}

// UpdateJobCardRequest 更新工单非库存字段。parts_used 不在此路径，
// handler 层直接拒绝。
type UpdateJobCardRequest struct {
	Status       *string      `json:"status"`
	VehicleReg   *string      `json:"vehicle_reg"`
	VehicleModel *string      `json:"vehicle_model"`
	ServiceType  *string      `json:"service_type"`
	Complaint    *string      `json:"complaint"`
	MechanicID   *string      `json:"mechanic_id"`
	Discount     *float64     `json:"discount"`
	Notes        *string      `json:"notes"`
	LaborEntries *[]LaborLine `json:"labor_entries"`
}

var validStatuses = map[string]bool{
	entity.JobCardStatusOpen:       true,
	entity.JobCardStatusInProgress: true,
	entity.JobCardStatusCompleted:  true,
	entity.JobCardStatusDelivered:  true,
	entity.JobCardStatusCancelled:  true,
}

// GeneralUpdate 更新状态、备注、技师、工时等业务字段。Never consults the
// reconciler and never changes any part's stock quantity.
func (s *JobCardService) GeneralUpdate(ctx context.Context, id string, req UpdateJobCardRequest) (*entity.JobCard, error) {
	if req.Status != nil && !validStatuses[*req.Status] {
		return nil, &ValidationError{Reason: "invalid status: " + *req.Status}
	}

	var result *entity.JobCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jc, err := s.jcRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrJobCardNotFound
			}
			return err
		}

		if req.Status != nil {
			jc.Status = *req.Status
			if *req.Status == entity.JobCardStatusCompleted && jc.CompletedAt == nil {
				now := time.Now()
				jc.CompletedAt = &now
			}
		}
		if req.VehicleReg != nil {
			jc.VehicleReg = *req.VehicleReg
		}
		if req.VehicleModel != nil {
			jc.VehicleModel = *req.VehicleModel
		}
		if req.ServiceType != nil {
			jc.ServiceType = *req.ServiceType
		}
		if req.Complaint != nil {
			jc.Complaint = *req.Complaint
		}
		if req.MechanicID != nil {
			jc.MechanicID = *req.MechanicID
		}
		if req.Discount != nil {
			jc.Discount = *req.Discount
		}
		if req.Notes != nil {
			jc.Notes = *req.Notes
		}
		if req.LaborEntries != nil {
			labor := buildLaborItems(jc.ID, *req.LaborEntries)
			if err := s.jcRepo.ReplaceLabor(ctx, tx, jc.ID, labor); err != nil {
				return err
			}
			jc.Labor = labor
		}

		if err := s.jcRepo.Update(ctx, tx, jc); err != nil {
			return err
		}
		result = jc
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return result, nil
}

// Delete 删单 — releases the card's whole reservation back to stock, then
// removes the card. Deleting a card that no longer exists succeeds.
func (s *JobCardService) Delete(ctx context.Context, id, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		jc, err := s.jcRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}

		delta := inventory.ReleaseAll(partsToMap(jc.Parts))
		info := partInfoFrom(nil, jc.Parts)
		if err := s.applyDeltas(ctx, tx, jc.ID, jc.JobNo, delta, info, userID); err != nil {
			return err
		}
		return s.jcRepo.Delete(ctx, tx, jc.ID)
	})
	return translateTxError(err)
}

func (s *JobCardService) GetByID(ctx context.Context, id string) (*entity.JobCard, error) {
	jc, err := s.jcRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobCardNotFound
		}
		return nil, err
	}
	return jc, nil
}

func (s *JobCardService) List(ctx context.Context, params repository.JobCardListParams) ([]entity.JobCard, int64, error) {
	return s.jcRepo.List(ctx, params)
}

// applyDeltas pushes the reconciler's signed deltas onto part stock, one
// conditional update per part, and records a movement row for each. A
// positive delta consumes stock (the movement quantity is negative). Parts
// are walked in a stable order so contended multi-part updates lock in a
// consistent sequence.
func (s *JobCardService) applyDeltas(ctx context.Context, tx *gorm.DB, refID, refCode string, delta map[string]int, info map[string]partInfo, userID string) error {
	ids := make([]string, 0, len(delta))
	for id := range delta {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, pid := range ids {
		d := delta[pid]
		if d == 0 {
			continue
		}
		ok, err := s.partRepo.AdjustStock(ctx, tx, pid, -d)
		if err != nil {
			return err
		}
		if !ok {
			part, perr := s.partRepo.FindByIDTx(ctx, tx, pid)
			if perr != nil {
				if errors.Is(perr, repository.ErrNotFound) {
					return &PartNotFoundError{PartID: pid}
				}
				return perr
			}
			return &InsufficientStockError{PartID: pid, Available: part.StockQuantity, Requested: d}
		}

		mv := &entity.StockMovement{
			ID:            uuid.New().String(),
			PartID:        pid,
			PartNo:        info[pid].no,
			PartName:      info[pid].name,
			Quantity:      -d,
			ReferenceType: entity.MovementRefJobCard,
			ReferenceID:   refID,
			ReferenceCode: refCode,
			CreatedBy:     userID,
		}
		if err := s.partRepo.CreateMovement(ctx, tx, mv); err != nil {
			return err
		}
	}
	return nil
}

// loadCatalog resolves every referenced part id, failing with
// PartNotFoundError before any delta is applied.
func (s *JobCardService) loadCatalog(ctx context.Context, ids []string) (map[string]*entity.Part, error) {
	parts, err := s.partRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*entity.Part, len(parts))
	for i := range parts {
		m[parts[i].ID] = &parts[i]
	}
	for _, id := range ids {
		if _, ok := m[id]; !ok {
			return nil, &PartNotFoundError{PartID: id}
		}
	}
	return m, nil
}

type partInfo struct {
	no   string
	name string
}

func partInfoFrom(catalog map[string]*entity.Part, items []entity.JobCardPart) map[string]partInfo {
	m := make(map[string]partInfo, len(catalog)+len(items))
	for _, it := range items {
		m[it.PartID] = partInfo{no: it.PartNo, name: it.PartName}
	}
	for id, p := range catalog {
		m[id] = partInfo{no: p.PartNo, name: p.Name}
	}
	return m
}

func toInventoryLines(lines []PartLine) []inventory.Line {
	out := make([]inventory.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, inventory.Line{PartID: l.PartID, Quantity: l.Quantity})
	}
	return out
}

func partsToMap(items []entity.JobCardPart) map[string]int {
	m := make(map[string]int, len(items))
	for _, it := range items {
		m[it.PartID] = it.Quantity
	}
	return m
}

// requestOrder returns part ids in first-appearance order, so merged
// duplicate lines keep the position of their first occurrence.
func requestOrder(lines []PartLine) []string {
	seen := make(map[string]bool, len(lines))
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		if seen[l.PartID] {
			continue
		}
		seen[l.PartID] = true
		order = append(order, l.PartID)
	}
	return order
}

func mapKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildPartItems produces the parts list to persist: surviving lines keep
// their position and their price snapshot, newly referenced parts are
// appended in request order with the current catalog price.
func buildPartItems(jobCardID string, next map[string]int, existing []entity.JobCardPart, order []string, catalog map[string]*entity.Part) []entity.JobCardPart {
	items := make([]entity.JobCardPart, 0, len(next))
	seen := make(map[string]bool, len(next))

	for _, it := range existing {
		q, keep := next[it.PartID]
		if !keep {
			continue
		}
		it.ID = uuid.New().String() // list rows are re-inserted wholesale
		it.Quantity = q
		it.TotalPrice = float64(q) * it.UnitPrice
		it.SortOrder = len(items) + 1
		items = append(items, it)
		seen[it.PartID] = true
	}

	for _, pid := range order {
		if seen[pid] {
			continue
		}
		q, ok := next[pid]
		if !ok {
			continue
		}
		p := catalog[pid]
		items = append(items, entity.JobCardPart{
			ID:         uuid.New().String(),
			JobCardID:  jobCardID,
			PartID:     pid,
			PartNo:     p.PartNo,
			PartName:   p.Name,
			Quantity:   q,
			UnitPrice:  p.UnitPrice,
			TotalPrice: float64(q) * p.UnitPrice,
			SortOrder:  len(items) + 1,
		})
		seen[pid] = true
	}
	return items
}

func buildLaborItems(jobCardID string, lines []LaborLine) []entity.LaborEntry {
	items := make([]entity.LaborEntry, 0, len(lines))
	for i, l := range lines {
		items = append(items, entity.LaborEntry{
			ID:          uuid.New().String(),
			JobCardID:   jobCardID,
			Description: l.Description,
			Hours:       l.Hours,
			Rate:        l.Rate,
			Amount:      l.Hours * l.Rate,
			SortOrder:   i + 1,
		})
	}
	return items
}
