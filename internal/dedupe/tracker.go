// Package dedupe records webhook events that were already handled so a
// provider replay does not double-drive the conversation.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultTTL bounds how long a processed event id is remembered.
// Providers stop retrying well before a day.
const defaultTTL = 24 * time.Hour

// Tracker stores processed event ids in redis. A nil *Tracker is valid
// and treats every event as new.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTracker wraps a redis client. ttl <= 0 uses the default.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tracker{client: client, ttl: ttl}
}

func key(provider, eventID string) string {
	return fmt.Sprintf("processed:%s:%s", provider, eventID)
}

// AlreadyProcessed checks whether this provider event id was seen.
func (t *Tracker) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if t == nil {
		return false, nil
	}
	n, err := t.client.Exists(ctx, key(provider, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records an event id, returning false if it already existed.
func (t *Tracker) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if t == nil {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, key(provider, eventID), 1, t.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: mark processed: %w", err)
	}
	return ok, nil
}
