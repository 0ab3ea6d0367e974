package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence interface for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
}

// ListFilter narrows patient listings.
type ListFilter struct {
	// Search matches against name and national id.
	Search string
	// Category filters by derived record category; empty means all.
	Category string
}
