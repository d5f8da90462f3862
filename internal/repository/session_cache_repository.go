package repository

import (
	"context"
	"errors"
	"fmt"
	"istas_backend/internal/session"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

// SessionCacheRepository keeps one session snapshot per tenant user in Redis.
type SessionCacheRepository struct {
	rdb    *redis.Client
	prefix string
	ttl    atomic.Int64
}

func NewSessionCacheRepository(rdb *redis.Client, prefix string, ttl time.Duration) *SessionCacheRepository {
	r := &SessionCacheRepository{rdb: rdb, prefix: prefix}
	r.SetTTL(ttl)
	return r
}

// SetTTL changes the expiry applied by later writes.
func (r *SessionCacheRepository) SetTTL(ttl time.Duration) {
	r.ttl.Store(int64(ttl))
}

func (r *SessionCacheRepository) TTL() time.Duration {
	return time.Duration(r.ttl.Load())
}

func (r *SessionCacheRepository) key(tenantID string, userID uint) string {
	return fmt.Sprintf("%s:%s:%d", r.prefix, tenantID, userID)
}

// Get returns nil without error when no snapshot is stored.
func (r *SessionCacheRepository) Get(ctx context.Context, tenantID string, userID uint) (*session.Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key(tenantID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return &snap, nil
}

// Put stores the snapshot and refreshes its expiry.
func (r *SessionCacheRepository) Put(ctx context.Context, tenantID string, userID uint, snap session.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(tenantID, userID), data, r.TTL()).Err()
}

func (r *SessionCacheRepository) Delete(ctx context.Context, tenantID string, userID uint) error {
	return r.rdb.Del(ctx, r.key(tenantID, userID)).Err()
}
