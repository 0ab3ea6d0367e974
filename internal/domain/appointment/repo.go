package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ListFilter struct {
	PatientID uuid.UUID
	StaffID   string
	From      time.Time
	To        time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error)
	// Overlapping returns appointments for the staff member intersecting
	// [start, end), excluding the given id.
	Overlapping(ctx context.Context, staffID string, start, end time.Time, exclude uuid.UUID) ([]*Appointment, error)
}
