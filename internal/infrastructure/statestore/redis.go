package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "vending:state"

// RedisStore keeps the state as one JSON value under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Save(ctx context.Context, state snapshot.State) error {
	b, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (snapshot.State, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return snapshot.State{}, snapshot.ErrNotFound
	}
	if err != nil {
		return snapshot.State{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeState(b)
}
