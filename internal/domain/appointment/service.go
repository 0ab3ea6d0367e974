package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/calendar"
	"github.com/odonto/clinic/internal/platform/notification"
)

// Calendar is the slice of the calendar client appointments push through.
type Calendar interface {
	Enabled() bool
	CreateEvent(ctx context.Context, userID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, userID string, event *calendar.Event) error
	DeleteEvent(ctx context.Context, userID, eventID string) error
}

// Notifier is the slice of the notification service appointments publish
// through.
type Notifier interface {
	Publish(ctx context.Context, recipient, event, title, body, entityID, patientID string) (*notification.Notification, error)
}

type Service struct {
	appts    Repository
	cal      Calendar
	notifier Notifier
	logger   zerolog.Logger
}

// NewService creates the appointment service. cal and notifier may be nil.
func NewService(appts Repository, cal Calendar, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{appts: appts, cal: cal, notifier: notifier, logger: logger}
}

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

func (s *Service) validate(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient is required")
	}
	if a.StaffID == "" {
		return fmt.Errorf("staff member is required")
	}
	if a.StartsAt.IsZero() || a.EndsAt.IsZero() {
		return fmt.Errorf("start and end times are required")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return fmt.Errorf("end time must be after start time")
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	overlaps, err := s.appts.Overlapping(ctx, a.StaffID, a.StartsAt, a.EndsAt, a.ID)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return fmt.Errorf("staff member already booked from %s to %s",
			overlaps[0].StartsAt.Format("15:04"), overlaps[0].EndsAt.Format("15:04"))
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if err := s.validate(ctx, a); err != nil {
		return err
	}
	// Push before insert so the external id lands in the row. A calendar
	// failure never blocks the booking.
	s.pushCreate(ctx, a)
	if err := s.appts.Create(ctx, a); err != nil {
		return err
	}
	s.notify(ctx, notification.EventAppointmentCreated, "Cita creada", a)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.List(ctx, filter, limit, offset)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	current, err := s.appts.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	a.CalendarEventID = current.CalendarEventID
	if err := s.validate(ctx, a); err != nil {
		return err
	}
	s.pushUpdate(ctx, a)
	if err := s.appts.Update(ctx, a); err != nil {
		return err
	}
	s.notify(ctx, notification.EventAppointmentUpdated, "Cita actualizada", a)
	return nil
}

// Cancel marks the appointment cancelled and removes the pushed calendar
// event when one exists.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled || a.Status == StatusCompleted {
		return nil, fmt.Errorf("appointment is already %s", a.Status)
	}
	a.Status = StatusCancelled
	if s.cal != nil && s.cal.Enabled() && a.CalendarEventID != "" {
		if err := s.cal.DeleteEvent(ctx, a.StaffID, a.CalendarEventID); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
				Msg("calendar event removal failed")
		} else {
			a.CalendarEventID = ""
		}
	}
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.notify(ctx, notification.EventAppointmentUpdated, "Cita cancelada", a)
	return a, nil
}

func (s *Service) pushCreate(ctx context.Context, a *Appointment) {
	if s.cal == nil || !s.cal.Enabled() {
		return
	}
	ev, err := s.cal.CreateEvent(ctx, a.StaffID, s.calendarEvent(a))
	if err != nil {
		s.logger.Warn().Err(err).Str("staff_id", a.StaffID).Msg("calendar push failed")
		return
	}
	a.CalendarEventID = ev.ID
}

func (s *Service) pushUpdate(ctx context.Context, a *Appointment) {
	if s.cal == nil || !s.cal.Enabled() {
		return
	}
	if a.CalendarEventID == "" {
		s.pushCreate(ctx, a)
		return
	}
	ev := s.calendarEvent(a)
	ev.ID = a.CalendarEventID
	if err := s.cal.UpdateEvent(ctx, a.StaffID, ev); err != nil {
		s.logger.Warn().Err(err).Str("staff_id", a.StaffID).Msg("calendar update failed")
	}
}

func (s *Service) calendarEvent(a *Appointment) *calendar.Event {
	return &calendar.Event{
		Summary:     "Cita odontológica",
		Description: a.Reason,
		Start:       a.StartsAt,
		End:         a.EndsAt,
	}
}

func (s *Service) notify(ctx context.Context, event, title string, a *Appointment) {
	if s.notifier == nil {
		return
	}
	body := fmt.Sprintf("%s a %s", a.StartsAt.Format("2006-01-02 15:04"),
		a.EndsAt.Format("15:04"))
	_, err := s.notifier.Publish(ctx, a.StaffID, event, title, body,
		a.ID.String(), a.PatientID.String())
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).
			Msg("appointment notification failed")
	}
}
