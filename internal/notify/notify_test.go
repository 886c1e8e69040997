package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisPublisher_Publish(t *testing.T) {
	rdb := setupRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "ledger.events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	walletID := uuid.New()
	ev := Event{
		Type:        EventWithdrawalRejected,
		ReferenceID: uuid.NewString(),
		WalletIDs:   []uuid.UUID{walletID},
		Amount:      1500,
		Detail:      "account closed",
		At:          time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, NewRedisPublisher(rdb, "ledger.events").Publish(ctx, ev))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.ReferenceID, got.ReferenceID)
	assert.Equal(t, []uuid.UUID{walletID}, got.WalletIDs)
	assert.Equal(t, int64(1500), got.Amount)
	assert.True(t, ev.At.Equal(got.At))
}

func TestRedisPublisher_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	err := NewRedisPublisher(rdb, "ledger.events").Publish(context.Background(), Event{Type: EventBookingReleased})
	assert.ErrorContains(t, err, "notify: publish")
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
