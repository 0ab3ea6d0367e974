package consent

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pendiente"
	StatusSigned   = "firmado"
	StatusAnnulled = "anulado"
)

// Form is a consent document for a patient. Body is rendered from a
// template at creation and frozen; signing only records who and when.
type Form struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	Title      string     `db:"title" json:"title"`
	Body       string     `db:"body" json:"body"`
	Status     string     `db:"status" json:"status"`
	SignerName string     `db:"signer_name" json:"signer_name,omitempty"`
	SignedAt   *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
