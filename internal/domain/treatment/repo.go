package treatment

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists catalog treatments.
type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	// FindByDescription returns the first treatment whose name is contained
	// in the given description, case-insensitively.
	FindByDescription(ctx context.Context, description string) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// NextSequence returns the next per-specialty code sequence number.
	NextSequence(ctx context.Context, specialty string) (int, error)
	// IncrementUsage bumps the usage counter by one.
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, specialty, name string, limit, offset int) ([]*Treatment, int, error)
	ListAll(ctx context.Context) ([]*Treatment, error)
}

// PromotionRepository persists promotions.
type PromotionRepository interface {
	Create(ctx context.Context, p *Promotion) error
	GetByID(ctx context.Context, id uuid.UUID) (*Promotion, error)
	Update(ctx context.Context, p *Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Promotion, int, error)
}
