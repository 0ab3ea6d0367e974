package patient

import (
	"time"

	"github.com/google/uuid"
)

// Record categories derived from the intake date. Patients are never hard
// deleted; archiving is an explicit flag on top of the age-based category.
const (
	CategoryActive     = "active"
	CategoryHistorical = "historical"
	CategoryArchived   = "archived"
)

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	NationalID  *string    `db:"national_id" json:"national_id,omitempty"`
	BirthDate   *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex         string     `db:"sex" json:"sex"`
	Diseases    *string    `db:"diseases" json:"diseases,omitempty"`
	Allergies   *string    `db:"allergies" json:"allergies,omitempty"`
	Medications *string    `db:"medications" json:"medications,omitempty"`
	Pregnant    bool       `db:"pregnant" json:"pregnant"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	CountryCode *string    `db:"country_code" json:"country_code,omitempty"`
	IntakeDate  time.Time  `db:"intake_date" json:"intake_date"`
	Archived    bool       `db:"archived" json:"archived"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Category derives the record category from the intake date at the given
// reference time. Explicit archiving always wins; otherwise intakes within
// two years are active, within five historical, and older ones archived.
func (p *Patient) Category(now time.Time) string {
	if p.Archived {
		return CategoryArchived
	}
	if p.IntakeDate.After(now.AddDate(-2, 0, 0)) {
		return CategoryActive
	}
	if p.IntakeDate.After(now.AddDate(-5, 0, 0)) {
		return CategoryHistorical
	}
	return CategoryArchived
}

// Age returns the patient's age in full years at the given time, or -1 when
// the birth date is unknown.
func (p *Patient) Age(now time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	b := *p.BirthDate
	age := now.Year() - b.Year()
	// Birthday not reached yet this year.
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return -1
	}
	return age
}
