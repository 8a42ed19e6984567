package entity

import "time"

// StockMovement reference types
const (
	MovementRefJobCard  = "JOBCARD"  // reservation / release by a job card
	MovementRefAdjust   = "ADJUST"   // manual stock correction
	MovementRefPurchase = "PURCHASE" // supplier goods receipt
)

// Part 配件档案 — catalog part with on-hand stock.
type Part struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	PartNo        string     `json:"part_no" gorm:"size:64;uniqueIndex;not null"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Category      string     `json:"category" gorm:"size:64"`
	UnitPrice     float64    `json:"unit_price" gorm:"type:decimal(12,2);default:0"`
	StockQuantity int        `json:"stock_quantity" gorm:"not null;default:0"`
	MinStockLevel int        `json:"min_stock_level" gorm:"not null;default:0"`
	Unit          string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	Location      string     `json:"location" gorm:"size:64"`
	SupplierName  string     `json:"supplier_name" gorm:"size:128"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Part) TableName() string {
	return "shop_parts"
}

// StockMovement 库存流水 — one row per applied stock delta.
// Quantity is signed: negative = consumed (reserved by a job card or
// adjusted down), positive = released back or received.
type StockMovement struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	PartID        string    `json:"part_id" gorm:"size:36;not null;index"`
	PartNo        string    `json:"part_no" gorm:"size:64"`
	PartName      string    `json:"part_name" gorm:"size:128"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	ReferenceType string    `json:"reference_type" gorm:"size:20;not null"`
	ReferenceID   string    `json:"reference_id" gorm:"size:64;not null"`
	ReferenceCode string    `json:"reference_code" gorm:"size:50"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedBy     string    `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "shop_stock_movements"
}
