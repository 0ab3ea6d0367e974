package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memoryStore keeps notifications in process memory, newest first per
// recipient. Suitable for development and single-instance deployments.
type memoryStore struct {
	mu      sync.RWMutex
	byUser  map[string][]*Notification
	maxPer  int
}

// NewMemoryStore creates an in-memory Store. maxPerRecipient caps how many
// notifications are retained per user; 0 means the default of 200.
func NewMemoryStore(maxPerRecipient int) Store {
	if maxPerRecipient <= 0 {
		maxPerRecipient = 200
	}
	return &memoryStore{
		byUser: make(map[string][]*Notification),
		maxPer: maxPerRecipient,
	}
}

func (s *memoryStore) Append(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	list := append([]*Notification{&cp}, s.byUser[n.Recipient]...)
	if len(list) > s.maxPer {
		list = list[:s.maxPer]
	}
	s.byUser[n.Recipient] = list
	return nil
}

func (s *memoryStore) List(_ context.Context, recipient string, limit int) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUser[recipient]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]*Notification, len(list))
	for i, n := range list {
		cp := *n
		out[i] = &cp
	}
	return out, nil
}

func (s *memoryStore) MarkRead(_ context.Context, recipient, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byUser[recipient] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("notification %q not found", id)
}

func (s *memoryStore) Prune(_ context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	for user, list := range s.byUser {
		kept := list[:0]
		for _, n := range list {
			if n.CreatedAt.After(cutoff) {
				kept = append(kept, n)
			}
		}
		if len(kept) == 0 {
			delete(s.byUser, user)
		} else {
			s.byUser[user] = kept
		}
	}
	return nil
}

func (s *memoryStore) Close() error { return nil }
