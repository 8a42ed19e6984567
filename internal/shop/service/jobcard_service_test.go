package service

import (
	"context"
	"errors"
	"testing"

	"github.com/torquelab/garage-erp/internal/shop/entity"
	"github.com/torquelab/garage-erp/internal/shop/repository"
	"github.com/torquelab/garage-erp/internal/shop/testutil"
	"gorm.io/gorm"
)

func setupJobCardTest(t *testing.T) (*gorm.DB, *JobCardService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewJobCardService(repos.JobCard, repos.Part, db)
	return db, svc
}

func partStock(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var part entity.Part
	if err := db.Where("id = ?", id).First(&part).Error; err != nil {
		t.Fatalf("Failed to read part %s: %v", id, err)
	}
	return part.StockQuantity
}

// reservedQty sums the quantity of a part across all existing job cards.
func reservedQty(t *testing.T, db *gorm.DB, partID string) int {
	t.Helper()
	var total int
	err := db.Model(&entity.JobCardPart{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("part_id = ?", partID).
		Scan(&total).Error
	if err != nil {
		t.Fatalf("Failed to sum reservations: %v", err)
	}
	return total
}

// checkConservation verifies stock + reserved == original for one part.
func checkConservation(t *testing.T, db *gorm.DB, partID string, original int) {
	t.Helper()
	stock := partStock(t, db, partID)
	reserved := reservedQty(t, db, partID)
	if stock+reserved != original {
		t.Errorf("conservation violated for part %s: stock %d + reserved %d != original %d",
			partID, stock, reserved, original)
	}
}

func TestCreateJobCardReservesStock(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID:  customer.ID,
		VehicleReg:  "KA01AB1234",
		ServiceType: "general_service",
		PartsUsed:   []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := partStock(t, db, oil.ID); got != 17 {
		t.Errorf("stock = %d, want 17", got)
	}
	if len(jc.Parts) != 1 || jc.Parts[0].Quantity != 3 {
		t.Fatalf("parts_used = %+v, want one line with quantity 3", jc.Parts)
	}
	if jc.Parts[0].UnitPrice != 450 || jc.Parts[0].TotalPrice != 1350 {
		t.Errorf("price snapshot = %v/%v, want 450/1350", jc.Parts[0].UnitPrice, jc.Parts[0].TotalPrice)
	}
	checkConservation(t, db, oil.ID, 20)

	// Movement history records the consumption.
	var mv entity.StockMovement
	if err := db.Where("part_id = ? AND reference_id = ?", oil.ID, jc.ID).First(&mv).Error; err != nil {
		t.Fatalf("expected a stock movement row: %v", err)
	}
	if mv.Quantity != -3 || mv.ReferenceType != entity.MovementRefJobCard {
		t.Errorf("movement = %+v, want quantity -3 ref JOBCARD", mv)
	}
}

func TestUpdatePartsAddMode(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateParts(ctx, jc.ID, UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 2}},
		UpdateMode: "add",
	}, "test-user")
	if err != nil {
		t.Fatalf("UpdateParts: %v", err)
	}

	if updated.Parts[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", updated.Parts[0].Quantity)
	}
	if got := partStock(t, db, oil.ID); got != 15 {
		t.Errorf("stock = %d, want 15", got)
	}
	checkConservation(t, db, oil.ID, 20)
}

func TestUpdatePartsUpdateModeIsAbsoluteAndIdempotent(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 5}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 10}},
		UpdateMode: "update",
	}
	updated, err := svc.UpdateParts(ctx, jc.ID, req, "test-user")
	if err != nil {
		t.Fatalf("UpdateParts: %v", err)
	}
	if updated.Parts[0].Quantity != 10 {
		t.Errorf("quantity = %d, want 10", updated.Parts[0].Quantity)
	}
	if got := partStock(t, db, oil.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}

	// Same request again: absolute semantics make it a no-op.
	if _, err := svc.UpdateParts(ctx, jc.ID, req, "test-user"); err != nil {
		t.Fatalf("UpdateParts (repeat): %v", err)
	}
	if got := partStock(t, db, oil.ID); got != 10 {
		t.Errorf("stock after repeat = %d, want 10", got)
	}
	checkConservation(t, db, oil.ID, 20)
}

func TestUpdatePartsReplaceReleasesUnlisted(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	fluid := testutil.SeedPart(t, db, "BF-DOT4", "Brake Fluid", 12, 3, 320)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed: []PartLine{
			{PartID: oil.ID, Quantity: 3},
			{PartID: fluid.ID, Quantity: 4},
		},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := partStock(t, db, fluid.ID); got != 8 {
		t.Fatalf("brake fluid stock = %d, want 8", got)
	}

	updated, err := svc.UpdateParts(ctx, jc.ID, UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 5}},
		UpdateMode: "replace",
	}, "test-user")
	if err != nil {
		t.Fatalf("UpdateParts: %v", err)
	}

	if len(updated.Parts) != 1 || updated.Parts[0].PartID != oil.ID || updated.Parts[0].Quantity != 5 {
		t.Fatalf("parts_used = %+v, want only engine oil x5", updated.Parts)
	}
	if got := partStock(t, db, fluid.ID); got != 12 {
		t.Errorf("brake fluid stock = %d, want 12 (fully released)", got)
	}
	if got := partStock(t, db, oil.ID); got != 15 {
		t.Errorf("engine oil stock = %d, want 15", got)
	}
	checkConservation(t, db, oil.ID, 20)
	checkConservation(t, db, fluid.ID, 12)
}

func TestCreateMergesDuplicateLines(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed: []PartLine{
			{PartID: oil.ID, Quantity: 3},
			{PartID: oil.ID, Quantity: 2},
		},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(jc.Parts) != 1 || jc.Parts[0].Quantity != 5 {
		t.Fatalf("parts_used = %+v, want one merged line with quantity 5", jc.Parts)
	}
	if got := partStock(t, db, oil.ID); got != 15 {
		t.Errorf("stock = %d, want 15 (single deduction of 5)", got)
	}
}

func TestCreateDuplicateLinesAgainstLowStock(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	// 3 + 2 on separate lines against stock 4 must fail once for the merged
	// total, not deduct 3 and then fail on the 2.
	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 4, 2, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	_, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed: []PartLine{
			{PartID: oil.ID, Quantity: 3},
			{PartID: oil.ID, Quantity: 2},
		},
	}, "test-user")

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 4 {
		t.Errorf("error detail = %+v, want requested 5 available 4", insufficient)
	}
	if got := partStock(t, db, oil.ID); got != 4 {
		t.Errorf("stock = %d, want 4 (untouched)", got)
	}
	var count int64
	db.Model(&entity.JobCard{}).Count(&count)
	if count != 0 {
		t.Errorf("job cards = %d, want 0", count)
	}
}

func TestInsufficientStockRollsBackEverything(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	pads := testutil.SeedPart(t, db, "BP-FR", "Brake Pads", 1, 1, 900)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	_, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed: []PartLine{
			{PartID: oil.ID, Quantity: 3},
			{PartID: pads.ID, Quantity: 2},
		},
	}, "test-user")

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if insufficient.PartID != pads.ID {
		t.Errorf("failing part = %s, want %s", insufficient.PartID, pads.ID)
	}
	// No partial deltas: both parts untouched.
	if got := partStock(t, db, oil.ID); got != 20 {
		t.Errorf("engine oil stock = %d, want 20", got)
	}
	if got := partStock(t, db, pads.ID); got != 1 {
		t.Errorf("brake pads stock = %d, want 1", got)
	}
	var movements int64
	db.Model(&entity.StockMovement{}).Count(&movements)
	if movements != 0 {
		t.Errorf("stock movements = %d, want 0", movements)
	}
}

func TestDeleteRestoresStockAndIsIdempotent(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, jc.ID, "test-user"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := partStock(t, db, oil.ID); got != 20 {
		t.Errorf("stock = %d, want 20 after delete", got)
	}
	if _, err := svc.GetByID(ctx, jc.ID); !errors.Is(err, ErrJobCardNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrJobCardNotFound", err)
	}

	// Deleting again is a no-op success.
	if err := svc.Delete(ctx, jc.ID, "test-user"); err != nil {
		t.Fatalf("Delete (repeat): %v", err)
	}
	if got := partStock(t, db, oil.ID); got != 20 {
		t.Errorf("stock after repeat delete = %d, want 20", got)
	}
}

func TestGeneralUpdateNeverTouchesStock(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	status := entity.JobCardStatusCompleted
	notes := "replaced oil, test drive ok"
	updated, err := svc.GeneralUpdate(ctx, jc.ID, UpdateJobCardRequest{
		Status: &status,
		Notes:  &notes,
		LaborEntries: &[]LaborLine{
			{Description: "Oil change", Hours: 0.5, Rate: 600},
		},
	})
	if err != nil {
		t.Fatalf("GeneralUpdate: %v", err)
	}
	if updated.Status != entity.JobCardStatusCompleted || updated.CompletedAt == nil {
		t.Errorf("status = %s completed_at = %v, want completed with timestamp", updated.Status, updated.CompletedAt)
	}
	if len(updated.Labor) != 1 || updated.Labor[0].Amount != 300 {
		t.Errorf("labor = %+v, want one entry with amount 300", updated.Labor)
	}
	if got := partStock(t, db, oil.ID); got != 17 {
		t.Errorf("stock = %d, want 17 (general update must not move stock)", got)
	}
	if got := reservedQty(t, db, oil.ID); got != 3 {
		t.Errorf("reserved = %d, want 3 (parts list untouched)", got)
	}
}

func TestUpdatePartsEmptyAddIsNoOp(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateParts(ctx, jc.ID, UpdateJobCardPartsRequest{
		PartsUsed:  nil,
		UpdateMode: "add",
	}, "test-user")
	if err != nil {
		t.Fatalf("UpdateParts: %v", err)
	}
	if len(updated.Parts) != 1 || updated.Parts[0].Quantity != 3 {
		t.Errorf("parts_used = %+v, want unchanged single line x3", updated.Parts)
	}
	if got := partStock(t, db, oil.ID); got != 17 {
		t.Errorf("stock = %d, want 17", got)
	}
}

func TestUpdatePartsErrors(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	jc, err := svc.Create(ctx, CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 3}},
	}, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Unknown mode.
	_, err = svc.UpdateParts(ctx, jc.ID, UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 1}},
		UpdateMode: "merge",
	}, "test-user")
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Errorf("unknown mode: err = %v, want ValidationError", err)
	}

	// Unknown part, rejected before any delta is applied.
	_, err = svc.UpdateParts(ctx, jc.ID, UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: "no-such-part", Quantity: 1}},
		UpdateMode: "add",
	}, "test-user")
	var missing *PartNotFoundError
	if !errors.As(err, &missing) {
		t.Errorf("unknown part: err = %v, want PartNotFoundError", err)
	}
	if got := partStock(t, db, oil.ID); got != 17 {
		t.Errorf("stock = %d, want 17 (untouched)", got)
	}

	// Missing job card.
	_, err = svc.UpdateParts(ctx, "no-such-card", UpdateJobCardPartsRequest{
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 1}},
		UpdateMode: "add",
	}, "test-user")
	if !errors.Is(err, ErrJobCardNotFound) {
		t.Errorf("missing card: err = %v, want ErrJobCardNotFound", err)
	}
}

func TestRecreateAfterDeleteRoundTrips(t *testing.T) {
	db, svc := setupJobCardTest(t)
	ctx := context.Background()

	oil := testutil.SeedPart(t, db, "OIL-5W30", "Engine Oil", 20, 5, 450)
	customer := testutil.SeedCustomer(t, db, "Ramesh Kumar", "9876543210")

	req := CreateJobCardRequest{
		CustomerID: customer.ID,
		PartsUsed:  []PartLine{{PartID: oil.ID, Quantity: 7}},
	}
	jc, err := svc.Create(ctx, req, "test-user")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, jc.ID, "test-user"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	jc2, err := svc.Create(ctx, req, "test-user")
	if err != nil {
		t.Fatalf("Create (again): %v", err)
	}

	if got := partStock(t, db, oil.ID); got != 13 {
		t.Errorf("stock = %d, want 13", got)
	}
	checkConservation(t, db, oil.ID, 20)
	if jc2.ID == jc.ID {
		t.Error("recreated card reused the old id")
	}
}
