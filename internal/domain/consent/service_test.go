package consent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/notification"
)

type mockRepo struct {
	items map[uuid.UUID]*Form
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Form)}
}

func (m *mockRepo) Create(_ context.Context, f *Form) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.items[f.ID] = f
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Form, error) {
	f, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("consent form not found")
	}
	cp := *f
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, f *Form) error {
	if _, ok := m.items[f.ID]; !ok {
		return fmt.Errorf("consent form not found")
	}
	m.items[f.ID] = f
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Form, int, error) {
	var out []*Form
	for _, f := range m.items {
		if f.PatientID == patientID {
			out = append(out, f)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) HasSigned(_ context.Context, patientID uuid.UUID) (bool, error) {
	for _, f := range m.items {
		if f.PatientID == patientID && f.Status == StatusSigned {
			return true, nil
		}
	}
	return false, nil
}

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Publish(_ context.Context, _, event, _, _, _, _ string) (*notification.Notification, error) {
	m.events = append(m.events, event)
	return &notification.Notification{Event: event}, nil
}

func newTestService() (*Service, *mockRepo, *mockNotifier) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	return NewService(repo, notifier, zerolog.Nop()), repo, notifier
}

func TestRenderTemplates(t *testing.T) {
	body, err := Render("tratamiento", TemplateData{
		PatientName: "María López",
		Treatment:   "Endodoncia molar",
		Date:        "2026-08-15",
		ClinicName:  "Clínica Sonrisa",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"María López", "Endodoncia molar", "2026-08-15", "Clínica Sonrisa"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	if _, err := Render("inexistente", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestCreateFreezesBody(t *testing.T) {
	svc, _, _ := newTestService()

	f, err := svc.Create(context.Background(), CreateInput{
		PatientID:   uuid.New(),
		Template:    "anestesia",
		PatientName: "Carlos Pineda",
		Treatment:   "Extracción simple",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Status != StatusPending {
		t.Errorf("status = %s, want pendiente", f.Status)
	}
	if !strings.Contains(f.Body, "Carlos Pineda") {
		t.Errorf("body not rendered: %q", f.Body)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Template: "tratamiento", PatientName: "X"}); err == nil {
		t.Error("expected error for missing patient")
	}
	if _, err := svc.Create(ctx, CreateInput{PatientID: uuid.New(), Template: "tratamiento"}); err == nil {
		t.Error("expected error for missing patient name")
	}
}

func TestSignPendingOnly(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()
	patientID := uuid.New()

	f, err := svc.Create(ctx, CreateInput{
		PatientID: patientID, Template: "tratamiento", PatientName: "Ana Cruz",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Sign(ctx, f.ID, "", "user-1"); err == nil {
		t.Error("expected error for missing signer name")
	}

	signed, err := svc.Sign(ctx, f.ID, "Ana Cruz", "user-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.Status != StatusSigned || signed.SignedAt == nil || signed.SignerName != "Ana Cruz" {
		t.Errorf("signed form = %+v", signed)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notification.EventConsentSigned {
		t.Errorf("events = %v, want [consent.signed]", notifier.events)
	}

	if _, err := svc.Sign(ctx, f.ID, "Otra Persona", "user-1"); err == nil {
		t.Error("expected error signing an already signed form")
	}

	ok, err := svc.HasSigned(ctx, patientID)
	if err != nil {
		t.Fatalf("has signed: %v", err)
	}
	if !ok {
		t.Error("patient should have a signed consent on file")
	}
}

func TestAnnul(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	f, err := svc.Create(ctx, CreateInput{
		PatientID: uuid.New(), Template: "cirugia", PatientName: "Luis Mejía",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	annulled, err := svc.Annul(ctx, f.ID)
	if err != nil {
		t.Fatalf("annul: %v", err)
	}
	if annulled.Status != StatusAnnulled {
		t.Errorf("status = %s, want anulado", annulled.Status)
	}

	g, err := svc.Create(ctx, CreateInput{
		PatientID: uuid.New(), Template: "cirugia", PatientName: "Luis Mejía",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Sign(ctx, g.ID, "Luis Mejía", ""); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.Annul(ctx, g.ID); err == nil {
		t.Error("expected error annulling a signed form")
	}
}
