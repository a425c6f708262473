// Package redisgate keeps notification throttle state in Redis so several bot
// replicas serving one community share it.
package redisgate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Gate implements application.NotificationGate with SET NX PX.
type Gate struct {
	client    *redis.Client
	namespace string
}

// NewGate connects to redisURL and verifies the connection.
func NewGate(ctx context.Context, redisURL, namespace string) (*Gate, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewGateWithClient(client, namespace), nil
}

// NewGateWithClient wraps an existing client.
func NewGateWithClient(client *redis.Client, namespace string) *Gate {
	if namespace == "" {
		namespace = "dutybot"
	}
	return &Gate{client: client, namespace: namespace}
}

// Close closes the Redis connection.
func (g *Gate) Close() error {
	return g.client.Close()
}

// Ping checks the Redis connection.
func (g *Gate) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func (g *Gate) key(peerID int64) string {
	return fmt.Sprintf("%s:notify:%d", g.namespace, peerID)
}

// Acquire records now for peerID unless a record younger than window exists.
// The key outlives window by a millisecond so a request exactly window after
// the previous one is still suppressed.
func (g *Gate) Acquire(ctx context.Context, peerID int64, now time.Time, window time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(peerID), now.UTC().Format(time.RFC3339Nano), window+time.Millisecond).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire %d: %w", peerID, err)
	}
	return ok, nil
}

// Reset deletes the record for peerID.
func (g *Gate) Reset(ctx context.Context, peerID int64) error {
	if err := g.client.Del(ctx, g.key(peerID)).Err(); err != nil {
		return fmt.Errorf("redis: reset %d: %w", peerID, err)
	}
	return nil
}
