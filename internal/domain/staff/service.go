package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/auth"
)

var validRoles = map[string]bool{
	auth.RoleAdmin:  true,
	auth.RoleDoctor: true,
	auth.RoleStaff:  true,
}

type Service struct {
	users Repository
}

func NewService(users Repository) *Service {
	return &Service{users: users}
}

func (s *Service) Create(ctx context.Context, u *User) error {
	if u.Subject == "" {
		return fmt.Errorf("identity subject is required")
	}
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	if existing, err := s.users.GetBySubject(ctx, u.Subject); err == nil && existing != nil {
		return fmt.Errorf("staff user already exists for subject %s", u.Subject)
	}
	u.Active = true
	return s.users.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, u *User) error {
	current, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	if u.Name == "" {
		u.Name = current.Name
	}
	if u.Role == "" {
		u.Role = current.Role
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	// Subjects are immutable, they tie the row to the identity provider.
	u.Subject = current.Subject
	return s.users.Update(ctx, u)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, false)
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, true)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// RolesFor resolves the roles for an identity-provider subject. Unknown or
// deactivated subjects have no roles.
func (s *Service) RolesFor(ctx context.Context, subject string) []string {
	u, err := s.users.GetBySubject(ctx, subject)
	if err != nil || u == nil || !u.Active {
		return nil
	}
	return []string{u.Role}
}
