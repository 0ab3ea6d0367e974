package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "clinic:notif:"

// redisStore persists notifications in Redis, one list per recipient with
// newest entries first. Lists are trimmed to maxPer entries on append.
type redisStore struct {
	client *redis.Client
	maxPer int64
}

// NewRedisStore creates a Store backed by the given Redis URL. It pings the
// server before returning.
func NewRedisStore(ctx context.Context, redisURL string, maxPerRecipient int) (Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if maxPerRecipient <= 0 {
		maxPerRecipient = 200
	}
	return &redisStore{client: client, maxPer: int64(maxPerRecipient)}, nil
}

func recipientKey(recipient string) string {
	return redisKeyPrefix + recipient
}

func (s *redisStore) Append(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	key := recipientKey(n.Recipient)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, s.maxPer-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending notification: %w", err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context, recipient string, limit int) ([]*Notification, error) {
	end := int64(limit) - 1
	if limit <= 0 {
		end = s.maxPer - 1
	}

	raw, err := s.client.LRange(ctx, recipientKey(recipient), 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	out := make([]*Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue // skip corrupt entries
		}
		out = append(out, &n)
	}
	return out, nil
}

func (s *redisStore) MarkRead(ctx context.Context, recipient, id string) error {
	key := recipientKey(recipient)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("reading notifications: %w", err)
	}

	for i, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		if n.ID != id {
			continue
		}
		n.Read = true
		payload, err := json.Marshal(&n)
		if err != nil {
			return fmt.Errorf("marshaling notification: %w", err)
		}
		if err := s.client.LSet(ctx, key, int64(i), payload).Err(); err != nil {
			return fmt.Errorf("updating notification: %w", err)
		}
		return nil
	}
	return fmt.Errorf("notification %q not found", id)
}

func (s *redisStore) Prune(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scanning notification keys: %w", err)
		}
		for _, key := range keys {
			if err := s.pruneKey(ctx, key, cutoff); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (s *redisStore) pruneKey(ctx context.Context, key string, cutoff time.Time) error {
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}

	var kept []interface{}
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		if n.CreatedAt.After(cutoff) {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(raw) {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(kept) > 0 {
		pipe.RPush(ctx, key, kept...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rewriting %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
