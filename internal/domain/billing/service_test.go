package billing

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/notification"
	"github.com/odonto/clinic/internal/platform/reporting"
)

type mockRepo struct {
	items map[uuid.UUID]*CompletedTreatment
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*CompletedTreatment)}
}

func (m *mockRepo) Create(_ context.Context, ct *CompletedTreatment) error {
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	m.items[ct.ID] = ct
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*CompletedTreatment, error) {
	ct, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("completed treatment not found")
	}
	cp := *ct
	cp.Items = append([]Item(nil), ct.Items...)
	cp.Payments = append([]Payment(nil), ct.Payments...)
	return &cp, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	ct, ok := m.items[id]
	if !ok {
		return fmt.Errorf("completed treatment not found")
	}
	ct.PaymentStatus = status
	return nil
}

func (m *mockRepo) AddPayment(_ context.Context, p *Payment) error {
	ct, ok := m.items[p.CompletedTreatmentID]
	if !ok {
		return fmt.Errorf("completed treatment not found")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	ct.Payments = append(ct.Payments, *p)
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*CompletedTreatment, int, error) {
	var out []*CompletedTreatment
	for _, ct := range m.items {
		if ct.PatientID == patientID {
			out = append(out, ct)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*CompletedTreatment, int, error) {
	out := make([]*CompletedTreatment, 0, len(m.items))
	for _, ct := range m.items {
		out = append(out, ct)
	}
	return out, len(out), nil
}

func (m *mockRepo) LedgerRows(_ context.Context, from, to time.Time) ([]reporting.LedgerRow, error) {
	var out []reporting.LedgerRow
	for _, ct := range m.items {
		if ct.TreatmentDate.Before(from) || !ct.TreatmentDate.Before(to) {
			continue
		}
		for _, it := range ct.Items {
			out = append(out, reporting.LedgerRow{
				Date:         ct.TreatmentDate,
				Description:  it.Description,
				Quantity:     it.Quantity,
				UnitPrice:    it.UnitPrice,
				Total:        it.Total,
				Currency:     ct.Currency,
				PaymentState: ct.PaymentStatus,
			})
		}
	}
	return out, nil
}

type mockSummaries struct {
	summaries map[uuid.UUID]string
}

func (m *mockSummaries) Summary(_ context.Context, patientID uuid.UUID) (string, error) {
	return m.summaries[patientID], nil
}

type mockConsents struct {
	signed map[uuid.UUID]bool
}

func (m *mockConsents) HasSigned(_ context.Context, patientID uuid.UUID) (bool, error) {
	return m.signed[patientID], nil
}

type mockUsage struct {
	descriptions []string
}

func (m *mockUsage) RecordUsageFor(_ context.Context, description string) error {
	m.descriptions = append(m.descriptions, description)
	return nil
}

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Publish(_ context.Context, _, event, _, _, _, _ string) (*notification.Notification, error) {
	m.events = append(m.events, event)
	return &notification.Notification{Event: event}, nil
}

type testEnv struct {
	svc       *Service
	repo      *mockRepo
	summaries *mockSummaries
	consents  *mockConsents
	usage     *mockUsage
	notifier  *mockNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:      newMockRepo(),
		summaries: &mockSummaries{summaries: make(map[uuid.UUID]string)},
		consents:  &mockConsents{signed: make(map[uuid.UUID]bool)},
		usage:     &mockUsage{},
		notifier:  &mockNotifier{},
	}
	env.svc = NewService(env.repo, env.summaries, env.consents, env.usage,
		env.notifier, nil, zerolog.Nop())
	return env
}

func validRecord(patientID uuid.UUID) *CompletedTreatment {
	return &CompletedTreatment{
		PatientID: patientID,
		Items: []Item{
			{Description: "Endodoncia molar", Quantity: 1, UnitPrice: 4500},
			{Description: "Corona de porcelana", Quantity: 1, UnitPrice: 6000},
		},
	}
}

func TestCreateRecomputesAndDefaults(t *testing.T) {
	env := newTestEnv()
	ct := validRecord(uuid.New())
	ct.Items[0].Total = 1 // stale, must be recomputed

	if err := env.svc.Create(context.Background(), ct, "user-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ct.Items[0].Total != 4500 {
		t.Errorf("total = %v, want 4500", ct.Items[0].Total)
	}
	if ct.PaymentStatus != StatusPendingSignature {
		t.Errorf("status = %s, want pendiente_firma", ct.PaymentStatus)
	}
	if ct.Currency != "HNL" {
		t.Errorf("currency = %s, want HNL", ct.Currency)
	}
	if len(env.notifier.events) != 1 || env.notifier.events[0] != notification.EventTreatmentCompleted {
		t.Errorf("events = %v, want [treatment.completed]", env.notifier.events)
	}
	if len(env.usage.descriptions) != 2 {
		t.Errorf("usage recorded for %d items, want 2", len(env.usage.descriptions))
	}
}

func TestCreateEmbedsOdontogramSummary(t *testing.T) {
	env := newTestEnv()
	patientID := uuid.New()
	env.summaries.summaries[patientID] = "Caries: 2 diente(s)"

	ct := validRecord(patientID)
	ct.Notes = "Sesión única"
	if err := env.svc.Create(context.Background(), ct, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(ct.Notes, "Sesión única") || !strings.Contains(ct.Notes, "Caries: 2 diente(s)") {
		t.Errorf("notes = %q, want original notes plus summary", ct.Notes)
	}

	// No active chart contributes nothing.
	other := validRecord(uuid.New())
	if err := env.svc.Create(context.Background(), other, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if other.Notes != "" {
		t.Errorf("notes = %q, want empty without an active chart", other.Notes)
	}
}

func TestCreateDiscountValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	both := validRecord(uuid.New())
	both.DiscountAmount = 100
	both.DiscountPercent = 10
	if err := env.svc.Create(ctx, both, ""); err == nil {
		t.Error("expected error for amount and percent together")
	}

	over := validRecord(uuid.New())
	over.DiscountAmount = 99999
	if err := env.svc.Create(ctx, over, ""); err == nil {
		t.Error("expected error for discount above subtotal")
	}

	pct := validRecord(uuid.New())
	pct.DiscountPercent = 150
	if err := env.svc.Create(ctx, pct, ""); err == nil {
		t.Error("expected error for percent above 100")
	}
}

func TestDerivedMoney(t *testing.T) {
	ct := &CompletedTreatment{
		Items: []Item{
			{Quantity: 2, UnitPrice: 1000, Total: 2000},
			{Quantity: 1, UnitPrice: 500, Total: 500},
		},
		DiscountPercent: 10,
		Payments:        []Payment{{Amount: 1000}, {Amount: 250}},
	}
	if got := ct.Subtotal(); got != 2500 {
		t.Errorf("subtotal = %v, want 2500", got)
	}
	if got := ct.Discount(); got != 250 {
		t.Errorf("discount = %v, want 250", got)
	}
	if got := ct.Total(); got != 2250 {
		t.Errorf("total = %v, want 2250", got)
	}
	if got := ct.Balance(); got != 1000 {
		t.Errorf("balance = %v, want 1000", got)
	}
}

func TestAdvanceRequiresSignedConsent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	patientID := uuid.New()

	ct := validRecord(patientID)
	if err := env.svc.Create(ctx, ct, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Advance(ctx, ct.ID, StatusSigned); err == nil {
		t.Error("expected error: no signed consent on file")
	}

	env.consents.signed[patientID] = true
	got, err := env.svc.Advance(ctx, ct.ID, StatusSigned)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if got.PaymentStatus != StatusSigned {
		t.Errorf("status = %s, want firmado", got.PaymentStatus)
	}
}

func TestAdvanceNeverSkipsOrReverses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ct := validRecord(uuid.New())
	if err := env.svc.Create(ctx, ct, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.Advance(ctx, ct.ID, StatusPaid); err == nil {
		t.Error("expected error: cannot skip firmado")
	}
	if _, err := env.svc.Advance(ctx, ct.ID, StatusPendingSignature); err == nil {
		t.Error("expected error: status never reverses")
	}
}

func TestPaidRequiresZeroBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	patientID := uuid.New()
	env.consents.signed[patientID] = true

	ct := validRecord(patientID)
	if err := env.svc.Create(ctx, ct, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.Advance(ctx, ct.ID, StatusSigned); err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := env.svc.Advance(ctx, ct.ID, StatusPaid); err == nil {
		t.Error("expected error: balance is outstanding")
	}

	if _, err := env.svc.RecordPayment(ctx, &Payment{CompletedTreatmentID: ct.ID, Amount: 10500}, "user-1"); err != nil {
		t.Fatalf("payment: %v", err)
	}
	got, err := env.svc.Advance(ctx, ct.ID, StatusPaid)
	if err != nil {
		t.Fatalf("advance to pagado: %v", err)
	}
	if got.PaymentStatus != StatusPaid {
		t.Errorf("status = %s, want pagado", got.PaymentStatus)
	}
}

func TestRecordPaymentValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ct := validRecord(uuid.New())
	if err := env.svc.Create(ctx, ct, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.RecordPayment(ctx, &Payment{CompletedTreatmentID: ct.ID, Amount: 0}, ""); err == nil {
		t.Error("expected error for zero amount")
	}
	if _, err := env.svc.RecordPayment(ctx, &Payment{CompletedTreatmentID: ct.ID, Amount: 99999}, ""); err == nil {
		t.Error("expected error for overpayment")
	}

	got, err := env.svc.RecordPayment(ctx, &Payment{CompletedTreatmentID: ct.ID, Amount: 5000}, "user-1")
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if got.Balance() != 5500 {
		t.Errorf("balance = %v, want 5500", got.Balance())
	}
	if env.notifier.events[len(env.notifier.events)-1] != notification.EventPaymentRecorded {
		t.Errorf("last event = %v, want payment.recorded", env.notifier.events)
	}
}

func TestLedgerRowsWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	in := validRecord(uuid.New())
	in.TreatmentDate = time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if err := env.svc.Create(ctx, in, ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	out := validRecord(uuid.New())
	out.TreatmentDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := env.svc.Create(ctx, out, ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := env.svc.LedgerRows(ctx,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (items of the in-window record only)", len(rows))
	}
}
