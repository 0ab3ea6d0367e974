package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/reporting"
)

// Repository persists completed treatments with their items and payments.
type Repository interface {
	Create(ctx context.Context, ct *CompletedTreatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*CompletedTreatment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	AddPayment(ctx context.Context, p *Payment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CompletedTreatment, int, error)
	List(ctx context.Context, limit, offset int) ([]*CompletedTreatment, int, error)
	// LedgerRows returns the reporting rows for treatments dated in [from, to).
	LedgerRows(ctx context.Context, from, to time.Time) ([]reporting.LedgerRow, error)
}
