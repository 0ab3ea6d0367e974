package staff

import (
	"time"

	"github.com/google/uuid"
)

// User is a clinic staff member. Subject is the identity-provider subject
// the JWT carries; Role feeds the route authorizer.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"subject"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Role      string    `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
