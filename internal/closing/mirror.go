package closing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Mirror is the eventually-consistent remote copy of closing records,
// consulted only when the local store has no record for the date.
type Mirror interface {
	FindByDate(ctx context.Context, businessID string, date time.Time) (*CashClosing, error)
}

// RedisMirror reads closing snapshots replicated into Redis by the sync
// engine.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror constructs a RedisMirror.
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

// FindByDate returns the mirrored closing for a date, or nil when absent.
func (m *RedisMirror) FindByDate(ctx context.Context, businessID string, date time.Time) (*CashClosing, error) {
	if m == nil || m.client == nil {
		return nil, errors.New("closing: mirror not initialised")
	}
	data, err := m.client.Get(ctx, mirrorKey(businessID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var c CashClosing
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func mirrorKey(businessID string, date time.Time) string {
	return fmt.Sprintf("closing:%s:%s", businessID, date.Format("2006-01-02"))
}

var _ Mirror = (*RedisMirror)(nil)
