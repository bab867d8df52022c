package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisInvalidator broadcasts configuration changes to every instance
// subscribed to the same channel.
type RedisInvalidator struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *slog.Logger
}

// NewRedisInvalidator creates an invalidator on the given channel.
func NewRedisInvalidator(client *redis.Client, channel string, logger *slog.Logger) *RedisInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisInvalidator{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger.With("component", "config-invalidator", "channel", channel),
	}
}

// Publish tells other instances to drop their cached configuration.
func (r *RedisInvalidator) Publish(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, r.instanceID).Err(); err != nil {
		r.logger.Error("Failed to publish invalidation", "error", err)
		return err
	}
	r.logger.Debug("Published invalidation")
	return nil
}

// Listen calls onInvalidate for every message published by another instance
// until ctx is cancelled. It returns once the subscription is confirmed and
// keeps receiving in the background.
func (r *RedisInvalidator) Listen(ctx context.Context, onInvalidate func()) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer func() {
			if err := sub.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				r.logger.Warn("Failed to close subscription", "error", err)
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == r.instanceID {
					continue
				}
				r.logger.Debug("Received invalidation", "from", msg.Payload)
				onInvalidate()
			}
		}
	}()
	return nil
}
