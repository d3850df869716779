package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	FriendsKeyPrefix = "friends:%d"
	FriendsTTL       = 5 * time.Minute
)

// FriendsKey is the cache key for the friend list of userID.
func FriendsKey(userID uint) string {
	return fmt.Sprintf(FriendsKeyPrefix, userID)
}

// Store is a JSON cache over Redis. A Store with a nil client caches nothing.
type Store struct {
	client *redis.Client
	name   string
}

// NewStore returns a Store named for metrics. client may be nil.
func NewStore(client *redis.Client, name string) *Store {
	return &Store{client: client, name: name}
}

// Enabled reports whether the store has a Redis client.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.CacheLookups.WithLabelValues(s.name, "miss").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	observability.CacheLookups.WithLabelValues(s.name, "hit").Inc()
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// CacheAside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Redis failures degrade to a plain fetch.
// The result is only stored if key was not invalidated while fetch ran.
func (s *Store) CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if found {
		return nil
	}

	cacheable := s.Enabled() && err == nil
	var gen int64
	if cacheable {
		if gen, err = s.generation(ctx, key); err != nil {
			cacheable = false
		}
	}

	if err := fetch(); err != nil {
		return err
	}
	if !cacheable {
		return nil
	}

	written, err := s.setIfGeneration(ctx, key, gen, dest, ttl)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !written {
		observability.CacheLookups.WithLabelValues(s.name, "stale_skip").Inc()
	}
	return nil
}

// generationTTL outlives any cached value, so a counter never resets mid-fetch.
const generationTTL = 24 * time.Hour

func generationKey(key string) string {
	return key + ":gen"
}

// generation returns the invalidation counter of key. A missing counter is zero.
func (s *Store) generation(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, generationKey(key)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// setIfGeneration stores v under key only while its counter still equals gen.
func (s *Store) setIfGeneration(ctx context.Context, key string, gen int64, v any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}

	genKey := generationKey(key)
	written := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		written = err == nil
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return written, err
}

// Invalidate deletes keys and bumps their counters so in-flight CacheAside
// calls drop what they fetched. Failures are logged, never returned.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()),
		)
	}
}

// InvalidateFriends drops the cached friend lists of every given user.
func (s *Store) InvalidateFriends(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, FriendsKey(id))
	}
	s.Invalidate(ctx, keys...)
}
