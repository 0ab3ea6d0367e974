package billing

import (
	"time"

	"github.com/google/uuid"
)

// Payment states advance in order and never reverse.
const (
	StatusPendingSignature = "pendiente_firma"
	StatusSigned           = "firmado"
	StatusPaid             = "pagado"
)

// Item is a realized billing line. Total is recomputed as
// Quantity*UnitPrice on every write.
type Item struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	CompletedTreatmentID uuid.UUID `db:"completed_treatment_id" json:"completed_treatment_id"`
	Description          string    `db:"description" json:"description"`
	Quantity             int       `db:"quantity" json:"quantity"`
	UnitPrice            float64   `db:"unit_price" json:"unit_price"`
	Total                float64   `db:"total" json:"total"`
}

// Payment is one installment against a completed treatment.
type Payment struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	CompletedTreatmentID uuid.UUID `db:"completed_treatment_id" json:"completed_treatment_id"`
	Amount               float64   `db:"amount" json:"amount"`
	Method               string    `db:"method" json:"method,omitempty"`
	PaidAt               time.Time `db:"paid_at" json:"paid_at"`
	Notes                string    `db:"notes" json:"notes,omitempty"`
}

// CompletedTreatment is the realized billing record for work actually done.
// The discount is either a flat amount or a percentage of the subtotal,
// never both.
type CompletedTreatment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	TreatmentDate   time.Time `db:"treatment_date" json:"treatment_date"`
	Currency        string    `db:"currency" json:"currency"`
	DiscountAmount  float64   `db:"discount_amount" json:"discount_amount"`
	DiscountPercent float64   `db:"discount_percent" json:"discount_percent"`
	PaymentStatus   string    `db:"payment_status" json:"payment_status"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	Items           []Item    `db:"-" json:"items"`
	Payments        []Payment `db:"-" json:"payments"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Subtotal sums the line totals before any discount.
func (ct *CompletedTreatment) Subtotal() float64 {
	var sum float64
	for i := range ct.Items {
		sum += ct.Items[i].Total
	}
	return sum
}

// Discount resolves the applied discount in currency units.
func (ct *CompletedTreatment) Discount() float64 {
	if ct.DiscountAmount > 0 {
		return ct.DiscountAmount
	}
	if ct.DiscountPercent > 0 {
		return ct.Subtotal() * ct.DiscountPercent / 100
	}
	return 0
}

// Total is the amount owed after the discount.
func (ct *CompletedTreatment) Total() float64 {
	return ct.Subtotal() - ct.Discount()
}

// Paid sums the recorded payments.
func (ct *CompletedTreatment) Paid() float64 {
	var sum float64
	for i := range ct.Payments {
		sum += ct.Payments[i].Amount
	}
	return sum
}

// Balance is what remains to be paid.
func (ct *CompletedTreatment) Balance() float64 {
	return ct.Total() - ct.Paid()
}

// statusRank orders the payment states. Transitions must move forward.
var statusRank = map[string]int{
	StatusPendingSignature: 0,
	StatusSigned:           1,
	StatusPaid:             2,
}

// CanAdvance reports whether the payment status may move from from to to.
func CanAdvance(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr == fr+1
}
