package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay shares feed messages between instances over Redis Pub/Sub.
// Broadcast publishes to the channel; Run delivers every received message,
// including this instance's own, to the local hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRedisRelay creates a relay on channel that feeds hub
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, logger: logger}
}

// Broadcast publishes msg to every instance
func (r *RedisRelay) Broadcast(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal feed message: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("publish feed message: %w", err)
	}
	return nil
}

// Start subscribes to the channel and relays messages until Stop
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("feed relay already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(subCtx, r.channel)
	if _, err := pubsub.Receive(subCtx); err != nil {
		r.mu.Unlock()
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("subscribe to feed channel: %w", err)
	}
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.mu.Unlock()

	r.logger.Info("Feed relay subscribed", zap.String("channel", r.channel))
	go r.run(subCtx, pubsub)
	return nil
}

func (r *RedisRelay) run(ctx context.Context, pubsub *redis.PubSub) {
	defer close(r.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				r.logger.Warn("Feed relay channel closed")
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				r.logger.Error("Failed to unmarshal feed message", zap.Error(err))
				continue
			}
			r.hub.Deliver(msg)
		}
	}
}

// Stop ends the subscription
func (r *RedisRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
