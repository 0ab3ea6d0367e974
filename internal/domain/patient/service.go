package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

var validSexes = map[string]bool{
	"femenino": true, "masculino": true, "otro": true,
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return fmt.Errorf("first_name is required")
	}
	if p.Sex == "" {
		p.Sex = "otro"
	}
	if !validSexes[p.Sex] {
		return fmt.Errorf("invalid sex: %s", p.Sex)
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date is in the future")
	}
	if p.IntakeDate.IsZero() {
		p.IntakeDate = time.Now().UTC()
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.Sex != "" && !validSexes[p.Sex] {
		return fmt.Errorf("invalid sex: %s", p.Sex)
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date is in the future")
	}
	return s.patients.Update(ctx, p)
}

// Archive soft-archives a patient. Patients are never hard-deleted.
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	return s.patients.SetArchived(ctx, id, true)
}

// Restore clears the archived flag.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) error {
	return s.patients.SetArchived(ctx, id, false)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, filter, limit, offset)
}

// Alert classifies a patient's medical risk for the alert banner.
func (s *Service) Alert(ctx context.Context, id uuid.UUID) (*Classification, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cls := Classify(p, time.Now())
	return &cls, nil
}
