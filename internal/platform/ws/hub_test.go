package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "client-1",
		Topics: []string{"appointments"},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount("appointments") != 1 {
		t.Fatalf("expected 1 client on appointments, got %d", hub.TopicCount("appointments"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "client-2",
		Topics: []string{"quotes"},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount("quotes") != 0 {
		t.Fatalf("expected 0 clients on quotes, got %d", hub.TopicCount("quotes"))
	}

	// Send channel is closed after unregister.
	if _, open := <-client.Send; open {
		t.Fatal("expected Send channel to be closed")
	}
}

func TestHubBroadcastToTopic(t *testing.T) {
	hub := NewHub()

	subscriber := &Client{
		ID:     "sub-1",
		Topics: []string{"appointments"},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	nonSubscriber := &Client{
		ID:     "non-sub-1",
		Topics: []string{"billing"},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(subscriber)
	hub.Register(nonSubscriber)

	event := Event{
		Type:      "appointment.created",
		Topic:     "appointments",
		EntityID:  "apt-42",
		PatientID: "pat-7",
		Timestamp: time.Now().UTC(),
	}
	hub.Broadcast("appointments", event)

	select {
	case raw := <-subscriber.Send:
		var got Event
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshaling broadcast: %v", err)
		}
		if got.Type != "appointment.created" || got.EntityID != "apt-42" {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-nonSubscriber.Send:
		t.Fatal("non-subscriber received event")
	default:
	}
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "client-3",
		Topics: []string{},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"quotes", "billing"}})
	if hub.TopicCount("quotes") != 1 || hub.TopicCount("billing") != 1 {
		t.Fatal("subscribe did not register topics")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"quotes"}})
	if hub.TopicCount("quotes") != 0 {
		t.Fatal("unsubscribe did not remove topic")
	}
	if hub.TopicCount("billing") != 1 {
		t.Fatal("unsubscribe removed unrelated topic")
	}
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "client-4",
		Topics: []string{"payments"},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	err := hub.Publish(context.Background(), Event{
		Type:  "payment.recorded",
		Topic: "payments",
	})
	if err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case <-client.Send:
	case <-time.After(time.Second):
		t.Fatal("client did not receive published event")
	}
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub()
	a := &Client{ID: "a", Send: make(chan []byte, 1), hub: hub}
	b := &Client{ID: "b", Topics: []string{"appointments"}, Send: make(chan []byte, 1), hub: hub}
	hub.Register(a)
	hub.Register(b)

	hub.BroadcastAll(Event{Type: "clinic.closing"})

	for _, c := range []*Client{a, b} {
		select {
		case <-c.Send:
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", c.ID)
		}
	}
}
