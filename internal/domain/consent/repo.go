package consent

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *Form) error
	GetByID(ctx context.Context, id uuid.UUID) (*Form, error)
	Update(ctx context.Context, f *Form) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Form, int, error)
	// HasSigned reports whether the patient has any signed form.
	HasSigned(ctx context.Context, patientID uuid.UUID) (bool, error)
}
