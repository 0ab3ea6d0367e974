package odontogram

import (
	"time"

	"github.com/google/uuid"
)

// Tooth statuses in FDI charting, Spanish as captured by the intake forms.
const (
	StatusSano       = "sano"
	StatusCaries     = "caries"
	StatusObturado   = "obturado"
	StatusFracturado = "fracturado"
	StatusEndodoncia = "endodoncia"
	StatusExtraccion = "extraccion"
	StatusCorona     = "corona"
	StatusImplante   = "implante"
	StatusPuente     = "puente"
	StatusSellante   = "sellante"
	StatusAusente    = "ausente"
)

// ToothState describes a single tooth in a chart version. Nota and Notas
// are two legacy note fields kept for imported charts; either may carry
// the per-tooth free text.
type ToothState struct {
	Status           string            `json:"status"`
	Surfaces         map[string]string `json:"surfaces,omitempty"`
	Observation      string            `json:"observation,omitempty"`
	PlannedTreatment string            `json:"planned_treatment,omitempty"`
	Nota             string            `json:"nota,omitempty"`
	Notas            string            `json:"notas,omitempty"`
}

// Note returns the per-tooth free text from whichever legacy field is set.
func (t ToothState) Note() string {
	if t.Nota != "" {
		return t.Nota
	}
	return t.Notas
}

// Odontogram is a versioned chart snapshot for a patient. At most one
// version is active per patient; saving activates the new version and
// supersedes the previous one.
type Odontogram struct {
	ID                  uuid.UUID             `db:"id" json:"id"`
	PatientID           uuid.UUID             `db:"patient_id" json:"patient_id"`
	Version             int                   `db:"version" json:"version"`
	Active              bool                  `db:"active" json:"active"`
	Teeth               map[string]ToothState `db:"teeth" json:"teeth"`
	ChiefComplaint      *string               `db:"chief_complaint" json:"chief_complaint,omitempty"`
	GeneralObservations *string               `db:"general_observations" json:"general_observations,omitempty"`
	PlannedTreatments   []string              `db:"planned_treatments" json:"planned_treatments,omitempty"`
	Notes               *string               `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time             `db:"updated_at" json:"updated_at"`
}
