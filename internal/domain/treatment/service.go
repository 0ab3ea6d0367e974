package treatment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odonto/clinic/internal/platform/reporting"
)

// specialtyPrefixes maps specialties to their catalog code prefixes.
var specialtyPrefixes = map[string]string{
	"general":         "GEN",
	"ortodoncia":      "ORT",
	"endodoncia":      "END",
	"periodoncia":     "PER",
	"cirugia":         "CIR",
	"protesis":        "PRO",
	"estetica":        "EST",
	"odontopediatria": "PED",
	"implantologia":   "IMP",
}

type Service struct {
	treatments   Repository
	promotions   PromotionRepository
	homeCurrency string
}

func NewService(treatments Repository, promotions PromotionRepository, homeCurrency string) *Service {
	if homeCurrency == "" {
		homeCurrency = "HNL"
	}
	return &Service{treatments: treatments, promotions: promotions, homeCurrency: homeCurrency}
}

// -- Treatments --

func (s *Service) Create(ctx context.Context, t *Treatment) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	t.Specialty = strings.ToLower(strings.TrimSpace(t.Specialty))
	if t.Specialty == "" {
		t.Specialty = "general"
	}
	prefix, ok := specialtyPrefixes[t.Specialty]
	if !ok {
		return fmt.Errorf("unknown specialty: %s", t.Specialty)
	}
	if t.Currency == "" {
		t.Currency = s.homeCurrency
	}

	seq, err := s.treatments.NextSequence(ctx, t.Specialty)
	if err != nil {
		return err
	}
	t.Code = fmt.Sprintf("%s-%03d", prefix, seq)

	return s.treatments.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return s.treatments.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *Treatment) error {
	if t.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	current, err := s.treatments.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	// Codes are immutable once assigned.
	t.Code = current.Code
	if t.Specialty == "" {
		t.Specialty = current.Specialty
	}
	if t.Currency == "" {
		t.Currency = current.Currency
	}
	return s.treatments.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.treatments.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, specialty, name string, limit, offset int) ([]*Treatment, int, error) {
	return s.treatments.List(ctx, specialty, name, limit, offset)
}

// RecordUsage bumps the usage counter when a treatment lands on a quote or
// a completed-treatment record.
func (s *Service) RecordUsage(ctx context.Context, id uuid.UUID) error {
	return s.treatments.IncrementUsage(ctx, id)
}

// RecordUsageFor matches a line-item description against the catalog and
// bumps the matched treatment's counter. No match is not an error.
func (s *Service) RecordUsageFor(ctx context.Context, description string) error {
	t, err := s.treatments.FindByDescription(ctx, description)
	if err != nil || t == nil {
		return nil
	}
	return s.treatments.IncrementUsage(ctx, t.ID)
}

// CurrencyFor resolves the currency for a quote line item by matching its
// description against the catalog. Unmatched items fall back to the home
// currency. The match is a substring heuristic, not a guarantee; manually
// edited descriptions can mis-bucket.
func (s *Service) CurrencyFor(ctx context.Context, description string) string {
	t, err := s.treatments.FindByDescription(ctx, description)
	if err != nil || t == nil {
		return s.homeCurrency
	}
	return t.Currency
}

// CatalogRows exports the catalog for XLSX reporting.
func (s *Service) CatalogRows(ctx context.Context) ([]reporting.CatalogRow, error) {
	items, err := s.treatments.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]reporting.CatalogRow, len(items))
	for i, t := range items {
		rows[i] = reporting.CatalogRow{
			Code:      t.Code,
			Name:      t.Name,
			Specialty: t.Specialty,
			Price:     t.Price,
			Currency:  t.Currency,
			UsedCount: t.UsedCount,
		}
	}
	return rows, nil
}

// -- Promotions --

func (s *Service) CreatePromotion(ctx context.Context, p *Promotion) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.OriginalPrice <= 0 {
		return fmt.Errorf("original_price must be positive")
	}
	if p.DiscountedPrice < 0 || p.DiscountedPrice > p.OriginalPrice {
		return fmt.Errorf("discounted_price must be between 0 and original_price")
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return fmt.Errorf("valid_until precedes valid_from")
	}
	if p.Currency == "" {
		p.Currency = s.homeCurrency
	}
	return s.promotions.Create(ctx, p)
}

func (s *Service) GetPromotion(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	return s.promotions.GetByID(ctx, id)
}

func (s *Service) UpdatePromotion(ctx context.Context, p *Promotion) error {
	if p.OriginalPrice <= 0 {
		return fmt.Errorf("original_price must be positive")
	}
	if p.DiscountedPrice < 0 || p.DiscountedPrice > p.OriginalPrice {
		return fmt.Errorf("discounted_price must be between 0 and original_price")
	}
	return s.promotions.Update(ctx, p)
}

func (s *Service) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	return s.promotions.Delete(ctx, id)
}

func (s *Service) ListPromotions(ctx context.Context, limit, offset int) ([]*Promotion, int, error) {
	return s.promotions.List(ctx, limit, offset)
}

// UsePromotion validates the window and bumps the usage counter.
func (s *Service) UsePromotion(ctx context.Context, id uuid.UUID) (*Promotion, error) {
	p, err := s.promotions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.ValidAt(time.Now()) {
		return nil, fmt.Errorf("promotion %s is outside its validity window", p.Name)
	}
	if err := s.promotions.IncrementUsage(ctx, id); err != nil {
		return nil, err
	}
	p.UsedCount++
	return p, nil
}
