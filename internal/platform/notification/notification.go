// Package notification stores and serves per-user clinic notifications
// (appointment reminders, quote updates, payment confirmations).
package notification

import (
	"context"
	"time"
)

// Event types published by the domain services.
const (
	EventAppointmentCreated = "appointment.created"
	EventAppointmentUpdated = "appointment.updated"
	EventQuoteAccepted      = "quote.accepted"
	EventQuoteExpired       = "quote.expired"
	EventTreatmentCompleted = "treatment.completed"
	EventPaymentRecorded    = "payment.recorded"
	EventConsentSigned      = "consent.signed"
)

// RecipientClinic is the shared inbox for events with no acting user, such
// as lazily expired quotes.
const RecipientClinic = "clinic"

// Notification is a single message addressed to a staff user.
type Notification struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Event     string    `json:"event"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notifications. Implementations must be safe for concurrent
// use and release their resources on Close.
type Store interface {
	Append(ctx context.Context, n *Notification) error
	List(ctx context.Context, recipient string, limit int) ([]*Notification, error)
	MarkRead(ctx context.Context, recipient, id string) error
	Prune(ctx context.Context, olderThan time.Duration) error
	Close() error
}
