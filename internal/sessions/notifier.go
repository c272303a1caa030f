package sessions

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Notifier pushes force-logout events to the device holding the session.
// Delivery is push-based so clients observe termination without polling.
type Notifier interface {
	NotifyForceLogout(ctx context.Context, sessionID string) error
}

// RedisNotifier publishes on a per-session channel.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier constructs a RedisNotifier.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// NotifyForceLogout publishes the termination event.
func (n *RedisNotifier) NotifyForceLogout(ctx context.Context, sessionID string) error {
	if n == nil || n.client == nil {
		return errors.New("sessions: notifier not initialised")
	}
	return n.client.Publish(ctx, sessionChannel(sessionID), "force_logout").Err()
}

// Watch subscribes to a session's own channel. The returned channel yields
// one value per termination event; calling the cancel function unsubscribes,
// which is how a locally-ended session stops listening.
func (n *RedisNotifier) Watch(ctx context.Context, sessionID string) (<-chan string, func() error, error) {
	if n == nil || n.client == nil {
		return nil, nil, errors.New("sessions: notifier not initialised")
	}
	sub := n.client.Subscribe(ctx, sessionChannel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	events := make(chan string)
	go func() {
		defer close(events)
		for msg := range sub.Channel() {
			select {
			case events <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, sub.Close, nil
}

func sessionChannel(sessionID string) string {
	return "session:" + sessionID + ":events"
}

var _ Notifier = (*RedisNotifier)(nil)
