package treatment

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Treatment is a catalog entry priced in a single currency. Code is
// generated from the specialty prefix plus a per-specialty sequence.
type Treatment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Specialty string    `db:"specialty" json:"specialty"`
	Price     float64   `db:"price" json:"price"`
	Currency  string    `db:"currency" json:"currency"`
	UsedCount int       `db:"used_count" json:"used_count"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Promotion is a discounted catalog entry with a validity window.
// DiscountPercent is derived from the two prices, never stored as input.
type Promotion struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	OriginalPrice   float64    `db:"original_price" json:"original_price"`
	DiscountedPrice float64    `db:"discounted_price" json:"discounted_price"`
	Currency        string     `db:"currency" json:"currency"`
	ValidFrom       *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidUntil      *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	UsedCount       int        `db:"used_count" json:"used_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// DiscountPercent returns the derived discount as a whole percentage.
func (p *Promotion) DiscountPercent() int {
	if p.OriginalPrice <= 0 {
		return 0
	}
	return int(math.Round((1 - p.DiscountedPrice/p.OriginalPrice) * 100))
}

// ValidAt reports whether the promotion window covers t. Open ends of the
// window pass.
func (p *Promotion) ValidAt(t time.Time) bool {
	if p.ValidFrom != nil && t.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && t.After(*p.ValidUntil) {
		return false
	}
	return true
}
