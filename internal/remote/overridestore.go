package remote

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// OverrideStore is an optional Redis-backed fetch-by-key lookup for the
// ambient temperature override and profile pause/resume flag (spec.md
// §6), modeled on the teacher's profiling.RedisPriorityFetcher
// fetch-by-key shape. Each lookup is bounded by the store's timeout and
// returns any fetch error to its caller; the run loop does not consult
// the store.
type OverrideStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewOverrideStore connects lazily (redis.NewClient does not dial until
// first use) to addr/db with the given password.
func NewOverrideStore(addr, password string, db int, timeout time.Duration) *OverrideStore {
	return &OverrideStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		timeout: timeout,
	}
}

// AmbientOverride returns the configured ambient temperature override, if
// any key "milton:ambient" is set.
func (s *OverrideStore) AmbientOverride() (value float64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, "milton:ambient").Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}

	return v, true, nil
}

// Paused reports whether key "milton:paused" is set to a truthy value.
func (s *OverrideStore) Paused() (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.client.Get(ctx, "milton:paused").Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return raw == "1" || raw == "true", nil
}

// Close releases the underlying Redis connection pool.
func (s *OverrideStore) Close() error {
	return s.client.Close()
}
