package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/odonto/clinic/internal/platform/auth"
	"github.com/odonto/clinic/internal/platform/ws"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Append(ctx, &Notification{
			ID:        string(rune('a' + i)),
			Recipient: "user-1",
			Event:     EventAppointmentCreated,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	list, err := store.List(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}
	// Newest first.
	if list[0].ID != "c" {
		t.Errorf("expected newest first, got %s", list[0].ID)
	}

	other, err := store.List(ctx, "user-2", 10)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no notifications for other user, got %d", len(other))
	}
}

func TestMemoryStoreLimit(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		store.Append(ctx, &Notification{ID: string(rune('a' + i)), Recipient: "u"})
	}
	list, _ := store.List(ctx, "u", 2)
	if len(list) != 2 {
		t.Fatalf("expected limit 2, got %d", len(list))
	}
}

func TestMemoryStoreCap(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		store.Append(ctx, &Notification{ID: string(rune('a' + i)), Recipient: "u"})
	}
	list, _ := store.List(ctx, "u", 10)
	if len(list) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(list))
	}
	if list[0].ID != "e" {
		t.Errorf("expected newest retained, got %s", list[0].ID)
	}
}

func TestMemoryStoreMarkRead(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	store.Append(ctx, &Notification{ID: "n1", Recipient: "u"})

	if err := store.MarkRead(ctx, "u", "n1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	list, _ := store.List(ctx, "u", 1)
	if !list[0].Read {
		t.Error("notification not marked read")
	}

	if err := store.MarkRead(ctx, "u", "missing"); err == nil {
		t.Error("expected error for unknown id")
	}
	if err := store.MarkRead(ctx, "other", "n1"); err == nil {
		t.Error("expected error for wrong recipient")
	}
}

func TestMemoryStorePrune(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	store.Append(ctx, &Notification{ID: "old", Recipient: "u", CreatedAt: time.Now().Add(-48 * time.Hour)})
	store.Append(ctx, &Notification{ID: "new", Recipient: "u", CreatedAt: time.Now()})

	if err := store.Prune(ctx, 24*time.Hour); err != nil {
		t.Fatalf("prune: %v", err)
	}
	list, _ := store.List(ctx, "u", 10)
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("expected only new notification, got %+v", list)
	}
}

func TestServicePublishFansOut(t *testing.T) {
	svc := NewService(NewMemoryStore(0), ws.NewHub(), zerolog.Nop())

	n, err := svc.Publish(context.Background(), "user-1", EventQuoteAccepted,
		"Cotización aceptada", "La cotización #12 fue aceptada", "12", "pat-3")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n.ID == "" {
		t.Error("expected generated id")
	}

	list, err := svc.List(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Event != EventQuoteAccepted {
		t.Fatalf("unexpected stored notifications: %+v", list)
	}
}

func TestTopicFor(t *testing.T) {
	cases := map[string]string{
		EventAppointmentCreated: "appointments",
		EventQuoteAccepted:      "quotes",
		EventPaymentRecorded:    "payments",
		EventTreatmentCompleted: "treatments",
		"plain":                 "plain",
	}
	for event, want := range cases {
		if got := topicFor(event); got != want {
			t.Errorf("topicFor(%q) = %q, want %q", event, got, want)
		}
	}
}

func listRequest(t *testing.T, h *Handler, userID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.HandleList(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestHandleListRequiresAuth(t *testing.T) {
	h := NewHandler(NewService(NewMemoryStore(0), nil, zerolog.Nop()))
	rec := listRequest(t, h, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleListReturnsOwnNotifications(t *testing.T) {
	svc := NewService(NewMemoryStore(0), nil, zerolog.Nop())
	svc.Publish(context.Background(), "user-1", EventAppointmentCreated, "Cita", "", "", "")
	svc.Publish(context.Background(), "user-2", EventAppointmentCreated, "Cita", "", "", "")
	h := NewHandler(svc)

	rec := listRequest(t, h, "user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []*Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(list) != 1 || list[0].Recipient != "user-1" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestHandleListClinicSharedInbox(t *testing.T) {
	svc := NewService(NewMemoryStore(0), nil, zerolog.Nop())
	svc.Publish(context.Background(), RecipientClinic, EventQuoteExpired, "Cotización vencida", "", "", "")
	svc.Publish(context.Background(), "user-1", EventAppointmentCreated, "Cita", "", "", "")
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications/clinic", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleListClinic(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []*Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(list) != 1 || list[0].Recipient != RecipientClinic || list[0].Event != EventQuoteExpired {
		t.Fatalf("unexpected clinic inbox: %+v", list)
	}
}

func TestHandleMarkClinicRead(t *testing.T) {
	svc := NewService(NewMemoryStore(0), nil, zerolog.Nop())
	n, _ := svc.Publish(context.Background(), RecipientClinic, EventQuoteExpired, "Cotización vencida", "", "", "")
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/notifications/clinic/"+n.ID+"/read", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)

	if err := h.HandleMarkClinicRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	list, _ := svc.List(context.Background(), RecipientClinic, 1)
	if !list[0].Read {
		t.Error("clinic notification not marked read")
	}
}

func TestHandleMarkRead(t *testing.T) {
	svc := NewService(NewMemoryStore(0), nil, zerolog.Nop())
	n, _ := svc.Publish(context.Background(), "user-1", EventConsentSigned, "Consentimiento", "", "", "")
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+n.ID+"/read", nil)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, "user-1")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(n.ID)

	if err := h.HandleMarkRead(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	list, _ := svc.List(context.Background(), "user-1", 1)
	if !list[0].Read {
		t.Error("notification not marked read")
	}
}
