package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/db"
	"github.com/odonto/clinic/internal/platform/notification"
	"github.com/odonto/clinic/internal/platform/reporting"
)

// SummarySource renders the patient's active odontogram as text for
// embedding into billing notes.
type SummarySource interface {
	Summary(ctx context.Context, patientID uuid.UUID) (string, error)
}

// ConsentChecker reports whether the patient has a signed consent on file.
type ConsentChecker interface {
	HasSigned(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// UsageRecorder bumps catalog usage counters for billed line items.
type UsageRecorder interface {
	RecordUsageFor(ctx context.Context, description string) error
}

// Notifier is the slice of the notification service billing publishes through.
type Notifier interface {
	Publish(ctx context.Context, recipient, event, title, body, entityID, patientID string) (*notification.Notification, error)
}

type Service struct {
	repo         Repository
	summaries    SummarySource
	consents     ConsentChecker
	usage        UsageRecorder
	notifier     Notifier
	pool         *pgxpool.Pool
	logger       zerolog.Logger
	homeCurrency string
}

// NewService creates the billing service. summaries, consents, usage,
// notifier and pool may each be nil; nil summaries/usage/notifier skip the
// side effect, nil consents makes the firmado transition unconditional, nil
// pool skips transaction wrapping.
func NewService(repo Repository, summaries SummarySource, consents ConsentChecker,
	usage UsageRecorder, notifier Notifier, pool *pgxpool.Pool, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		summaries:    summaries,
		consents:     consents,
		usage:        usage,
		notifier:     notifier,
		pool:         pool,
		logger:       logger,
		homeCurrency: "HNL",
	}
}

func (s *Service) Create(ctx context.Context, ct *CompletedTreatment, actor string) error {
	if ct.PatientID == uuid.Nil {
		return fmt.Errorf("patient is required")
	}
	if len(ct.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i := range ct.Items {
		if ct.Items[i].Description == "" {
			return fmt.Errorf("item %d: description is required", i+1)
		}
		if ct.Items[i].Quantity <= 0 {
			return fmt.Errorf("item %d: quantity must be positive", i+1)
		}
		if ct.Items[i].UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price must not be negative", i+1)
		}
		ct.Items[i].Total = float64(ct.Items[i].Quantity) * ct.Items[i].UnitPrice
	}
	if ct.DiscountAmount > 0 && ct.DiscountPercent > 0 {
		return fmt.Errorf("discount is either an amount or a percent, not both")
	}
	if ct.DiscountPercent < 0 || ct.DiscountPercent > 100 {
		return fmt.Errorf("discount percent must be between 0 and 100")
	}
	if ct.DiscountAmount < 0 || ct.DiscountAmount > ct.Subtotal() {
		return fmt.Errorf("discount amount must be between 0 and the subtotal")
	}
	if ct.TreatmentDate.IsZero() {
		ct.TreatmentDate = time.Now()
	}
	if ct.Currency == "" {
		ct.Currency = s.homeCurrency
	}
	ct.PaymentStatus = StatusPendingSignature

	s.embedSummary(ctx, ct)

	create := func(ctx context.Context) error { return s.repo.Create(ctx, ct) }
	var err error
	if s.pool != nil {
		err = db.WithTx(ctx, s.pool, create)
	} else {
		err = create(ctx)
	}
	if err != nil {
		return err
	}

	s.recordUsage(ctx, ct)
	s.notify(ctx, actor, notification.EventTreatmentCompleted,
		"Tratamiento realizado", ct)
	return nil
}

// embedSummary appends the active odontogram summary to the notes. A
// missing active chart contributes nothing.
func (s *Service) embedSummary(ctx context.Context, ct *CompletedTreatment) {
	if s.summaries == nil {
		return
	}
	summary, err := s.summaries.Summary(ctx, ct.PatientID)
	if err != nil || summary == "" {
		return
	}
	if ct.Notes != "" {
		ct.Notes += "\n\n"
	}
	ct.Notes += summary
}

func (s *Service) recordUsage(ctx context.Context, ct *CompletedTreatment) {
	if s.usage == nil {
		return
	}
	for i := range ct.Items {
		if err := s.usage.RecordUsageFor(ctx, ct.Items[i].Description); err != nil {
			s.logger.Warn().Err(err).Str("description", ct.Items[i].Description).
				Msg("usage counter update failed")
		}
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CompletedTreatment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*CompletedTreatment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*CompletedTreatment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Advance moves the payment status one step forward. firmado requires a
// signed consent on file, pagado requires a zero balance.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, to string) (*CompletedTreatment, error) {
	ct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAdvance(ct.PaymentStatus, to) {
		return nil, fmt.Errorf("cannot advance payment status from %s to %s", ct.PaymentStatus, to)
	}
	switch to {
	case StatusSigned:
		if s.consents != nil {
			signed, err := s.consents.HasSigned(ctx, ct.PatientID)
			if err != nil {
				return nil, err
			}
			if !signed {
				return nil, fmt.Errorf("no signed consent on file for patient")
			}
		}
	case StatusPaid:
		if ct.Balance() > 0 {
			return nil, fmt.Errorf("outstanding balance of %.2f %s", ct.Balance(), ct.Currency)
		}
	}
	if err := s.repo.SetStatus(ctx, id, to); err != nil {
		return nil, err
	}
	ct.PaymentStatus = to
	return ct, nil
}

// RecordPayment adds an installment. Overpayment is rejected.
func (s *Service) RecordPayment(ctx context.Context, p *Payment, actor string) (*CompletedTreatment, error) {
	ct, err := s.repo.GetByID(ctx, p.CompletedTreatmentID)
	if err != nil {
		return nil, err
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive")
	}
	if p.Amount > ct.Balance() {
		return nil, fmt.Errorf("payment of %.2f exceeds balance of %.2f", p.Amount, ct.Balance())
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	if err := s.repo.AddPayment(ctx, p); err != nil {
		return nil, err
	}
	ct.Payments = append(ct.Payments, *p)

	s.notify(ctx, actor, notification.EventPaymentRecorded, "Pago registrado", ct)
	return ct, nil
}

// LedgerRows implements reporting.LedgerSource.
func (s *Service) LedgerRows(ctx context.Context, from, to time.Time) ([]reporting.LedgerRow, error) {
	return s.repo.LedgerRows(ctx, from, to)
}

func (s *Service) notify(ctx context.Context, recipient, event, title string, ct *CompletedTreatment) {
	if s.notifier == nil {
		return
	}
	if recipient == "" {
		recipient = notification.RecipientClinic
	}
	body := fmt.Sprintf("Tratamiento del %s, saldo %.2f %s",
		ct.TreatmentDate.Format("2006-01-02"), ct.Balance(), ct.Currency)
	_, err := s.notifier.Publish(ctx, recipient, event, title, body,
		ct.ID.String(), ct.PatientID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("billing_id", ct.ID.String()).Msg("billing notification failed")
	}
}
