package odontogram

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists odontogram versions.
type Repository interface {
	// Create inserts a new version. The caller assigns Version and Active.
	Create(ctx context.Context, o *Odontogram) error
	GetByID(ctx context.Context, id uuid.UUID) (*Odontogram, error)
	// GetActive returns the active version for a patient.
	GetActive(ctx context.Context, patientID uuid.UUID) (*Odontogram, error)
	// MaxVersion returns the highest version number for a patient, 0 when none.
	MaxVersion(ctx context.Context, patientID uuid.UUID) (int, error)
	// DeactivateAll clears the active flag on all of a patient's versions.
	DeactivateAll(ctx context.Context, patientID uuid.UUID) error
	// SetActive marks one version active.
	SetActive(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Odontogram, int, error)
}
