package entity

import "time"

// JobCard status
const (
	JobCardStatusOpen       = "open"
	JobCardStatusInProgress = "in_progress"
	JobCardStatusCompleted  = "completed"
	JobCardStatusDelivered  = "delivered"
	JobCardStatusCancelled  = "cancelled"
)

// JobCard 维修工单 — one vehicle service job.
type JobCard struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	JobNo        string     `json:"job_no" gorm:"size:32;uniqueIndex;not null"`
	CustomerID   string     `json:"customer_id" gorm:"size:36;not null;index"`
	VehicleReg   string     `json:"vehicle_reg" gorm:"size:32"`
	VehicleModel string     `json:"vehicle_model" gorm:"size:64"`
	ServiceType  string     `json:"service_type" gorm:"size:64"`
	Complaint    string     `json:"complaint" gorm:"type:text"`
	Status       string     `json:"status" gorm:"size:20;not null;default:open;index"`
	MechanicID   string     `json:"mechanic_id" gorm:"size:36;index"`
	Discount     float64    `json:"discount" gorm:"type:decimal(12,2);default:0"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Parts []JobCardPart `json:"parts_used" gorm:"foreignKey:JobCardID"`
	Labor []LaborEntry  `json:"labor_entries" gorm:"foreignKey:JobCardID"`
}

func (JobCard) TableName() string {
	return "shop_job_cards"
}

// JobCardPart is one reserved part line. PartID is unique within a card;
// duplicate references in a request are merged before persisting.
type JobCardPart struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	JobCardID  string  `json:"job_card_id" gorm:"size:36;not null;uniqueIndex:idx_job_card_part"`
	PartID     string  `json:"part_id" gorm:"size:36;not null;uniqueIndex:idx_job_card_part;index"`
	PartNo     string  `json:"part_no" gorm:"size:64"`
	PartName   string  `json:"part_name" gorm:"size:128"`
	Quantity   int     `json:"quantity" gorm:"not null"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:decimal(12,2);default:0"`
	TotalPrice float64 `json:"total_price" gorm:"type:decimal(12,2);default:0"`
	SortOrder  int     `json:"sort_order" gorm:"default:0"`
}

func (JobCardPart) TableName() string {
	return "shop_job_card_parts"
}

// LaborEntry is a labor charge line on a job card. Orthogonal to inventory.
type LaborEntry struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	JobCardID   string  `json:"job_card_id" gorm:"size:36;not null;index"`
	Description string  `json:"description" gorm:"size:255;not null"`
	Hours       float64 `json:"hours" gorm:"type:decimal(8,2);default:0"`
	Rate        float64 `json:"rate" gorm:"type:decimal(12,2);default:0"`
	Amount      float64 `json:"amount" gorm:"type:decimal(12,2);default:0"`
	SortOrder   int     `json:"sort_order" gorm:"default:0"`
}

func (LaborEntry) TableName() string {
	return "shop_job_card_labor"
}
