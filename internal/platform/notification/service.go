package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/ws"
)

// Service publishes clinic events: each event is stored for its recipient
// and fanned out to WebSocket subscribers of the event's topic.
type Service struct {
	store     Store
	publisher ws.EventPublisher
	logger    zerolog.Logger
}

// NewService creates a notification Service. publisher may be nil when no
// real-time fan-out is wanted.
func NewService(store Store, publisher ws.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Publish stores a notification for recipient and pushes the event to the
// topic's WebSocket subscribers. Storage failure is returned; fan-out
// failure is only logged.
func (s *Service) Publish(ctx context.Context, recipient, event, title, body, entityID, patientID string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Event:     event,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Append(ctx, n); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, ws.Event{
			Type:      event,
			Topic:     topicFor(event),
			EntityID:  entityID,
			PatientID: patientID,
			Timestamp: n.CreatedAt,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("event", event).Msg("event fan-out failed")
		}
	}

	return n, nil
}

// List returns the newest notifications for recipient.
func (s *Service) List(ctx context.Context, recipient string, limit int) ([]*Notification, error) {
	return s.store.List(ctx, recipient, limit)
}

// MarkRead flags a notification as read.
func (s *Service) MarkRead(ctx context.Context, recipient, id string) error {
	return s.store.MarkRead(ctx, recipient, id)
}

// Prune drops notifications older than the retention window.
func (s *Service) Prune(ctx context.Context, olderThan time.Duration) error {
	return s.store.Prune(ctx, olderThan)
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// topicFor maps an event name to its WebSocket topic, the segment before
// the first dot.
func topicFor(event string) string {
	for i := 0; i < len(event); i++ {
		if event[i] == '.' {
			return event[:i] + "s"
		}
	}
	return event
}
