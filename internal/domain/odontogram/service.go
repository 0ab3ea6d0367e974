package odontogram

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odonto/clinic/internal/platform/db"
)

var validStatuses = map[string]bool{
	StatusSano: true, StatusCaries: true, StatusObturado: true,
	StatusFracturado: true, StatusEndodoncia: true, StatusExtraccion: true,
	StatusCorona: true, StatusImplante: true, StatusPuente: true,
	StatusSellante: true, StatusAusente: true,
}

type Service struct {
	charts Repository
	pool   *pgxpool.Pool
}

// NewService creates the odontogram service. pool may be nil in tests; it is
// only used to run save-and-supersede inside one transaction.
func NewService(charts Repository, pool *pgxpool.Pool) *Service {
	return &Service{charts: charts, pool: pool}
}

// Save stores a new chart version and makes it the active one, superseding
// any previous active version. Versions are never overwritten.
func (s *Service) Save(ctx context.Context, o *Odontogram) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	for num, tooth := range o.Teeth {
		if tooth.Status != "" && !validStatuses[tooth.Status] {
			return fmt.Errorf("invalid status %q for tooth %s", tooth.Status, num)
		}
	}

	save := func(ctx context.Context) error {
		maxVersion, err := s.charts.MaxVersion(ctx, o.PatientID)
		if err != nil {
			return err
		}
		if err := s.charts.DeactivateAll(ctx, o.PatientID); err != nil {
			return err
		}
		o.Version = maxVersion + 1
		o.Active = true
		return s.charts.Create(ctx, o)
	}

	if s.pool != nil {
		return db.WithTx(ctx, s.pool, save)
	}
	return save(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Odontogram, error) {
	return s.charts.GetByID(ctx, id)
}

// Active returns the patient's active chart version.
func (s *Service) Active(ctx context.Context, patientID uuid.UUID) (*Odontogram, error) {
	return s.charts.GetActive(ctx, patientID)
}

// Activate makes an older version the active one.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	o, err := s.charts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	activate := func(ctx context.Context) error {
		if err := s.charts.DeactivateAll(ctx, o.PatientID); err != nil {
			return err
		}
		return s.charts.SetActive(ctx, id)
	}

	if s.pool != nil {
		return db.WithTx(ctx, s.pool, activate)
	}
	return activate(ctx)
}

func (s *Service) ListVersions(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Odontogram, int, error) {
	return s.charts.ListByPatient(ctx, patientID, limit, offset)
}

// Summary renders the active chart of a patient as text.
func (s *Service) Summary(ctx context.Context, patientID uuid.UUID) (string, error) {
	o, err := s.charts.GetActive(ctx, patientID)
	if err != nil {
		return "", err
	}
	return Summarize(o), nil
}
