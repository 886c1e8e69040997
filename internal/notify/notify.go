// Package notify hands ledger events to the notification delivery system.
// Publication happens after commit and never affects ledger state.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventWithdrawalApproved EventType = "withdrawal.approved"
	EventWithdrawalRejected EventType = "withdrawal.rejected"
	EventBookingReleased    EventType = "booking.released"
	EventDisputeResolved    EventType = "dispute.resolved"
)

type Event struct {
	Type        EventType   `json:"type"`
	ReferenceID string      `json:"referenceId"`
	WalletIDs   []uuid.UUID `json:"walletIds"`
	Amount      int64       `json:"amount"`
	Detail      string      `json:"detail,omitempty"`
	At          time.Time   `json:"at"`
}

//go:generate mockgen -source=notify.go -destination=../mocks/mock_publisher.go -package=mocks Publisher

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publishes JSON events on a Redis pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// Nop discards events. Used when REDIS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
