package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/eduatipico/portal/core/session"
)

// SessionBackend keeps persisted session records in Redis, expiring them with the key TTL.
type SessionBackend struct {
	rdb *redis.Client
}

var _ session.Backend = (*SessionBackend)(nil)

// Open connects to Redis and checks the connection.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func NewSessionBackend(rdb *redis.Client) *SessionBackend {
	return &SessionBackend{rdb: rdb}
}

func (b *SessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, session.ErrNoRecord
		}
		return nil, errors.Wrap(err, "redis GET")
	}
	return data, nil
}

func (b *SessionBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis SET")
	}
	return nil
}

func (b *SessionBackend) Delete(ctx context.Context, key string) error {
	if err := b.rdb.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis DEL")
	}
	return nil
}
