package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrJobCardNotFound is returned when an update targets a missing card.
	// Deletes treat a missing card as idempotent success instead.
	ErrJobCardNotFound = errors.New("job card not found")

	// ErrConcurrencyConflict means the transaction lost to a concurrent
	// writer; the caller should retry the whole request, its snapshot of
	// the reserved parts may be stale.
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry the request")
)

// PartNotFoundError 引用了不存在的配件
type PartNotFoundError struct {
	PartID string
}

func (e *PartNotFoundError) Error() string {
	return fmt.Sprintf("part %s not found", e.PartID)
}

// InsufficientStockError reports the one part whose stock would have gone
// negative. Nothing is applied when this is returned.
type InsufficientStockError struct {
	PartID    string `json:"part_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s: requested %d, available %d",
		e.PartID, e.Requested, e.Available)
}

// ValidationError 请求载荷不合法，未触碰存储
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// translateTxError maps postgres serialization and deadlock failures to the
// retryable conflict error; everything else passes through.
func translateTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ErrConcurrencyConflict
		}
	}
	return err
}
