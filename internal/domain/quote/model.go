package quote

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// ExpiryWindow is how long a quote stays open after its quote date.
const ExpiryWindow = 180 * 24 * time.Hour

// Item is a quote line. Total is always recomputed as Quantity*UnitPrice,
// never taken from the payload.
type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	QuoteID     uuid.UUID `db:"quote_id" json:"quote_id"`
	Description string    `db:"description" json:"description"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	Total       float64   `db:"total" json:"total"`
	// Currency is resolved from the catalog by description match at
	// calculation time, it is not stored.
	Currency string `db:"-" json:"currency,omitempty"`
}

type Quote struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Status    string    `db:"status" json:"status"`
	QuoteDate time.Time `db:"quote_date" json:"quote_date"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	Items     []Item    `db:"-" json:"items"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ExpiresAt returns the moment the quote lapses.
func (q *Quote) ExpiresAt() time.Time {
	return q.QuoteDate.Add(ExpiryWindow)
}

// ExpiredAt reports whether a still-pending quote has lapsed by t.
func (q *Quote) ExpiredAt(t time.Time) bool {
	return q.Status == StatusPending && t.After(q.ExpiresAt())
}

// validNext encodes the one-way status machine: pending advances to a
// terminal state and terminal states never change.
var validNext = map[string]map[string]bool{
	StatusPending: {
		StatusAccepted: true,
		StatusRejected: true,
		StatusExpired:  true,
	},
}

// CanTransition reports whether the status may move from from to to.
func CanTransition(from, to string) bool {
	return validNext[from][to]
}
