package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/notification"
)

// Notifier is the slice of the notification service quotes publish through.
type Notifier interface {
	Publish(ctx context.Context, recipient, event, title, body, entityID, patientID string) (*notification.Notification, error)
}

type Service struct {
	quotes   Repository
	resolver CurrencyResolver
	notifier Notifier
	pool     *pgxpool.Pool
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates the quote service. pool and notifier may be nil in
// tests; pool nil skips transaction wrapping.
func NewService(quotes Repository, resolver CurrencyResolver, notifier Notifier, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{
		quotes:   quotes,
		resolver: resolver,
		notifier: notifier,
		pool:     pool,
		logger:   logger,
		now:      time.Now,
	}
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i := range items {
		if items[i].Description == "" {
			return fmt.Errorf("item %d: description is required", i+1)
		}
		if items[i].Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if items[i].UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price must not be negative", i+1)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, q *Quote) error {
	if q.PatientID == uuid.Nil {
		return fmt.Errorf("patient is required")
	}
	if err := validateItems(q.Items); err != nil {
		return err
	}
	q.Status = StatusPending
	if q.QuoteDate.IsZero() {
		q.QuoteDate = s.now()
	}
	RecomputeItems(q.Items)

	create := func(ctx context.Context) error { return s.quotes.Create(ctx, q) }
	if s.pool != nil {
		return db.WithTx(ctx, s.pool, create)
	}
	return create(ctx)
}

// Get returns the quote, lazily marking it expired when the 180-day window
// has lapsed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quote, error) {
	q, err := s.quotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sweep(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Update(ctx context.Context, q *Quote) error {
	current, err := s.Get(ctx, q.ID)
	if err != nil {
		return err
	}
	if current.Status != StatusPending {
		return fmt.Errorf("quote is %s and can no longer be edited", current.Status)
	}
	if err := validateItems(q.Items); err != nil {
		return err
	}
	if q.QuoteDate.IsZero() {
		q.QuoteDate = current.QuoteDate
	}
	q.PatientID = current.PatientID
	q.Status = current.Status
	RecomputeItems(q.Items)

	update := func(ctx context.Context) error { return s.quotes.Update(ctx, q) }
	if s.pool != nil {
		return db.WithTx(ctx, s.pool, update)
	}
	return update(ctx)
}

// Transition advances the quote status. The machine is one way: pending
// moves to accepted, rejected or expired, terminal states are final.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to, actor string) (*Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(q.Status, to) {
		return nil, fmt.Errorf("cannot transition quote from %s to %s", q.Status, to)
	}
	if err := s.quotes.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	q.Status = to

	if to == StatusAccepted {
		s.notify(ctx, actor, notification.EventQuoteAccepted,
			"Presupuesto aceptado", q)
	}
	return q, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Quote, int, error) {
	quotes, total, err := s.quotes.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.sweepAll(ctx, quotes); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Quote, int, error) {
	quotes, total, err := s.quotes.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if err := s.sweepAll(ctx, quotes); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// Totals returns the quote's per-currency subtotals.
func (s *Service) Totals(ctx context.Context, id uuid.UUID) (*Quote, []Subtotal, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return q, Totals(ctx, s.resolver, q.Items), nil
}

// sweep applies the lazy expiry transition. The window is checked on every
// read, not by a background job, so an expired quote shows as pending until
// someone looks at it.
func (s *Service) sweep(ctx context.Context, q *Quote) error {
	if !q.ExpiredAt(s.now()) {
		return nil
	}
	if err := s.quotes.SetStatus(ctx, q.ID, StatusExpired); err != nil {
		return err
	}
	q.Status = StatusExpired
	s.notify(ctx, "", notification.EventQuoteExpired, "Presupuesto vencido", q)
	return nil
}

func (s *Service) sweepAll(ctx context.Context, quotes []*Quote) error {
	for _, q := range quotes {
		if err := s.sweep(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, recipient, event, title string, q *Quote) {
	if s.notifier == nil {
		return
	}
	if recipient == "" {
		recipient = notification.RecipientClinic
	}
	body := fmt.Sprintf("Presupuesto del %s", q.QuoteDate.Format("2006-01-02"))
	_, err := s.notifier.Publish(ctx, recipient, event, title, body,
		q.ID.String(), q.PatientID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("quote_id", q.ID.String()).Msg("quote notification failed")
	}
}
