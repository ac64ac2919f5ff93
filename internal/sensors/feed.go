package sensors

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis pub/sub channel carrying reading JSON.
const FeedChannel = "sensors.feed"

// Feed publishes readings to subscribers over Redis pub/sub. Delivery order
// within the channel follows publish order; consumers across channels get no
// ordering guarantee.
type Feed struct {
	client *redis.Client
	logger *slog.Logger
}

// NewFeed constructs a Feed.
func NewFeed(client *redis.Client, logger *slog.Logger) *Feed {
	return &Feed{client: client, logger: logger}
}

// Publish pushes one reading onto the feed.
func (f *Feed) Publish(ctx context.Context, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, FeedChannel, payload).Err()
}

// Subscribe delivers readings to fn until the context is cancelled. Messages
// that fail to decode are logged and skipped; the subscription survives.
func (f *Feed) Subscribe(ctx context.Context, fn func(Reading)) error {
	pubsub := f.client.Subscribe(ctx, FeedChannel)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription to be confirmed so a caller that publishes
	// immediately after Subscribe returns cannot race the registration.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var reading Reading
			if err := json.Unmarshal([]byte(msg.Payload), &reading); err != nil {
				f.logger.Warn("feed decode failed", slog.Any("error", err))
				continue
			}
			fn(reading)
		}
	}
}
