package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sekreterlik/sekreterlik/internal/session"
)

// Store keeps each session in one Redis hash whose fields are the session keys.
// Every write refreshes the hash TTL.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

func NewStore(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "sekreterlik:session:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Load(ctx context.Context, id string) (session.Snapshot, error) {
	if id == "" {
		return session.Snapshot{}, nil
	}
	values, err := s.client.HMGet(ctx, s.key(id), session.KeyUser, session.KeyIsLoggedIn).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Snapshot{}, nil
		}
		return session.Snapshot{}, fmt.Errorf("redis hmget: %w", err)
	}
	return session.Snapshot{User: asString(values[0]), IsLoggedIn: asString(values[1])}, nil
}

func (s *Store) Save(ctx context.Context, id string, snap session.Snapshot) error {
	if id == "" {
		return session.ErrEmptySessionID
	}
	return s.write(ctx, id, session.KeyUser, snap.User, session.KeyIsLoggedIn, snap.IsLoggedIn)
}

func (s *Store) Purge(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *Store) LoadView(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	raw, err := s.client.HGet(ctx, s.key(id), session.KeyDashboardView).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis hget: %w", err)
	}
	return raw, nil
}

func (s *Store) SaveView(ctx context.Context, id string, raw string) error {
	if id == "" {
		return session.ErrEmptySessionID
	}
	return s.write(ctx, id, session.KeyDashboardView, raw)
}

func (s *Store) write(ctx context.Context, id string, pairs ...interface{}) error {
	key := s.key(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, pairs...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write session: %w", err)
	}
	return nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
