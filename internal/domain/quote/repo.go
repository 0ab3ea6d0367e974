package quote

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists quotes and their line items. Create and Update store
// the quote together with its items; item replacement is wholesale.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	Update(ctx context.Context, q *Quote) error
	// SetStatus updates only the status column.
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Quote, int, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Quote, int, error)
}
