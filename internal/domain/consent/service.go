package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/notification"
)

// Notifier is the slice of the notification service consents publish through.
type Notifier interface {
	Publish(ctx context.Context, recipient, event, title, body, entityID, patientID string) (*notification.Notification, error)
}

type Service struct {
	forms    Repository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(forms Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{forms: forms, notifier: notifier, logger: logger}
}

// CreateInput names the template and its fill-in data.
type CreateInput struct {
	PatientID   uuid.UUID `json:"patient_id"`
	Template    string    `json:"template"`
	PatientName string    `json:"patient_name"`
	Treatment   string    `json:"treatment"`
	ClinicName  string    `json:"clinic_name"`
}

// Create renders the template into a frozen form body in pendiente state.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Form, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient is required")
	}
	if in.PatientName == "" {
		return nil, fmt.Errorf("patient name is required")
	}
	body, err := Render(in.Template, TemplateData{
		PatientName: in.PatientName,
		Treatment:   in.Treatment,
		ClinicName:  in.ClinicName,
	})
	if err != nil {
		return nil, err
	}
	f := &Form{
		PatientID: in.PatientID,
		Title:     fmt.Sprintf("Consentimiento: %s", in.Template),
		Body:      body,
		Status:    StatusPending,
	}
	if err := s.forms.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Form, error) {
	return s.forms.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Form, int, error) {
	return s.forms.ListByPatient(ctx, patientID, limit, offset)
}

// Sign records the signer and timestamp. Only pending forms can be signed.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, signerName, actor string) (*Form, error) {
	if signerName == "" {
		return nil, fmt.Errorf("signer name is required")
	}
	f, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status != StatusPending {
		return nil, fmt.Errorf("consent form is %s, only pending forms can be signed", f.Status)
	}
	now := time.Now()
	f.Status = StatusSigned
	f.SignerName = signerName
	f.SignedAt = &now
	if err := s.forms.Update(ctx, f); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_, err := s.notifier.Publish(ctx, actor, notification.EventConsentSigned,
			"Consentimiento firmado", fmt.Sprintf("Firmado por %s", signerName),
			f.ID.String(), f.PatientID.String())
		if err != nil {
			s.logger.Warn().Err(err).Str("consent_id", f.ID.String()).Msg("consent notification failed")
		}
	}
	return f, nil
}

// Annul voids a form. Signed forms cannot be annulled.
func (s *Service) Annul(ctx context.Context, id uuid.UUID) (*Form, error) {
	f, err := s.forms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == StatusSigned {
		return nil, fmt.Errorf("signed consent forms cannot be annulled")
	}
	f.Status = StatusAnnulled
	if err := s.forms.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// HasSigned reports whether the patient has a signed consent on file. The
// billing firmado transition checks this.
func (s *Service) HasSigned(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return s.forms.HasSigned(ctx, patientID)
}
