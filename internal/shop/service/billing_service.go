package service

import (
	"context"
	"errors"

	"github.com/torquelab/garage-erp/internal/shop/entity"
	"github.com/torquelab/garage-erp/internal/shop/repository"
)

// BillingService 结算只读视图 — reads a finished job card's parts and labor
// lines to build an invoice summary. Never touches stock.
type BillingService struct {
	jcRepo *repository.JobCardRepository
}

func NewBillingService(jcRepo *repository.JobCardRepository) *BillingService {
	return &BillingService{jcRepo: jcRepo}
}

type InvoiceSummary struct {
	JobCardID     string               `json:"job_card_id"`
	JobNo         string               `json:"job_no"`
	CustomerID    string               `json:"customer_id"`
	VehicleReg    string               `json:"vehicle_reg"`
	Parts         []entity.JobCardPart `json:"parts"`
	Labor         []entity.LaborEntry  `json:"labor"`
	PartsSubtotal float64              `json:"parts_subtotal"`
	LaborSubtotal float64              `json:"labor_subtotal"`
	Discount      float64              `json:"discount"`
	GrandTotal    float64              `json:"grand_total"`
}

// InvoiceForJobCard 生成工单结算单。Only completed or delivered cards can
// be invoiced.
func (s *BillingService) InvoiceForJobCard(ctx context.Context, id string) (*InvoiceSummary, error) {
	jc, err := s.jcRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrJobCardNotFound
		}
		return nil, err
	}
	if jc.Status != entity.JobCardStatusCompleted && jc.Status != entity.JobCardStatusDelivered {
		return nil, &ValidationError{Reason: "job card is not completed yet"}
	}

	inv := &InvoiceSummary{
		JobCardID:  jc.ID,
		JobNo:      jc.JobNo,
		CustomerID: jc.CustomerID,
		VehicleReg: jc.VehicleReg,
		Parts:      jc.Parts,
		Labor:      jc.Labor,
		Discount:   jc.Discount,
	}
	for _, p := range jc.Parts {
		inv.PartsSubtotal += p.TotalPrice
	}
	for _, l := range jc.Labor {
		inv.LaborSubtotal += l.Amount
	}
	inv.GrandTotal = inv.PartsSubtotal + inv.LaborSubtotal - inv.Discount
	if inv.GrandTotal < 0 {
		inv.GrandTotal = 0
	}
	return inv, nil
}
