package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultCallbackTTL = 24 * time.Hour

// CallbackDeduper remembers callback digests in Redis so a bank retrying the
// same callback is answered without touching the ledger.
type CallbackDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCallbackDeduper(client redis.Cmdable, ttl time.Duration) *CallbackDeduper {
	if ttl <= 0 {
		ttl = DefaultCallbackTTL
	}
	return &CallbackDeduper{client: client, ttl: ttl}
}

// NewRedisClient builds a client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func callbackKey(tenantID int64, digest string) string {
	return fmt.Sprintf("callback:%d:%s", tenantID, digest)
}

// Claim reports true for the first caller to see digest within the TTL.
func (d *CallbackDeduper) Claim(ctx context.Context, tenantID int64, digest string) (bool, error) {
	set, err := d.client.SetNX(ctx, callbackKey(tenantID, digest), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX error: %w", err)
	}
	return set, nil
}

// Release forgets a claim so the callback can be processed again.
func (d *CallbackDeduper) Release(ctx context.Context, tenantID int64, digest string) error {
	if err := d.client.Del(ctx, callbackKey(tenantID, digest)).Err(); err != nil {
		return fmt.Errorf("redis DEL error: %w", err)
	}
	return nil
}
