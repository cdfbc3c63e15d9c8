// Package store combines the birthday cache with a circuit breaker in
// front of the upstream fetcher, so repeated lookups do not hammer an
// unreliable source and an upstream outage does not take the service down.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/sony/gobreaker/v2"

	"bdaycal/internal/anilist"
	"bdaycal/internal/birthday"
	"bdaycal/internal/cache"
	"bdaycal/internal/metrics"
)

// ErrBreakerOpen is returned when the circuit breaker is open and the
// upstream fetch is not attempted. Callers should treat it as a
// temporarily-unavailable condition.
var ErrBreakerOpen = errors.New("birthday source temporarily unavailable")

// Fetcher is the upstream collaborator that loads favourite-character
// birthdays for a username. Errors must carry the anilist error taxonomy
// so the breaker can classify them.
type Fetcher interface {
	FavoriteBirthdays(ctx context.Context, username string) (birthday.Collection, error)
}

// Config tunes the cache and breaker. Zero values fall back to defaults.
type Config struct {
	// CacheTTL is how long a fetched collection stays live.
	CacheTTL time.Duration
	// CacheCapacity bounds the summed character count across entries.
	CacheCapacity int
	// TripThreshold is the number of consecutive systemic failures that
	// opens the breaker.
	TripThreshold uint32
	// Cooldown is how long the breaker stays open before permitting a
	// half-open trial call.
	Cooldown time.Duration
}

const (
	defaultCacheTTL      = 15 * time.Minute
	defaultCacheCapacity = 1024 * 1024
	defaultTripThreshold = 3
	defaultCooldown      = 30 * time.Second
)

// Store is the resilient fetch-through cache for character birthdays.
// It is safe for concurrent use; the cache and breaker synchronize
// internally, and no lock is held across the upstream call.
type Store struct {
	fetch   Fetcher
	cache   *cache.Cache[birthday.Collection]
	breaker *gobreaker.CircuitBreaker[birthday.Collection]
}

// New creates a Store around the given fetcher.
func New(fetch Fetcher, cfg Config) *Store {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = defaultCacheCapacity
	}
	if cfg.TripThreshold == 0 {
		cfg.TripThreshold = defaultTripThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}

	breaker := gobreaker.NewCircuitBreaker[birthday.Collection](gobreaker.Settings{
		Name:        "anilist",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripThreshold
		},
		// A missing user is an answer, not an outage: it must not push
		// the breaker toward open.
		IsSuccessful: func(err error) bool {
			return err == nil || anilist.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.BreakerTransitions.WithLabelValues(from.String(), to.String()).Inc()
			metrics.BreakerState.Set(stateValue(to))
		},
	})

	return &Store{
		fetch: fetch,
		cache: cache.New(cfg.CacheCapacity, cfg.CacheTTL, func(v birthday.Collection) int {
			return len(v)
		}),
		breaker: breaker,
	}
}

// GetOrFetch returns the character collection for a username, from cache
// when a live entry exists and from upstream otherwise.
//
// A cache hit never touches the breaker, so cached users stay served even
// while the upstream is melting down. On a miss the fetch goes through
// the breaker: an open breaker rejects immediately with ErrBreakerOpen,
// upstream errors propagate unchanged, and a success is cached under a
// fresh TTL. Concurrent misses for the same key may each fetch; every
// success populates the cache, last write wins.
//
// The returned slice is a copy, so callers can sort it freely.
func (s *Store) GetOrFetch(ctx context.Context, username string, now time.Time) (birthday.Collection, error) {
	if chars, ok := s.cache.Get(username, now); ok {
		metrics.CacheHits.Inc()
		return slices.Clone(chars), nil
	}
	metrics.CacheMisses.Inc()

	chars, err := s.breaker.Execute(func() (birthday.Collection, error) {
		return s.fetch.FavoriteBirthdays(ctx, username)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.FetchesTotal.WithLabelValues("rejected").Inc()
			return nil, ErrBreakerOpen
		}
		metrics.FetchesTotal.WithLabelValues(classify(err)).Inc()
		return nil, err
	}
	metrics.FetchesTotal.WithLabelValues("success").Inc()

	evicted := s.cache.Put(username, chars, now)
	if evicted > 0 {
		metrics.CacheEvictions.Add(float64(evicted))
		slog.Debug("cache evicted entries for capacity", "count", evicted)
	}
	return slices.Clone(chars), nil
}

// Sweep drops expired cache entries and returns how many were removed.
// It is meant to run on a background schedule.
func (s *Store) Sweep(now time.Time) int {
	return s.cache.Sweep(now)
}

// BreakerState exposes the current breaker state for health reporting.
func (s *Store) BreakerState() gobreaker.State {
	return s.breaker.State()
}

func classify(err error) string {
	switch {
	case anilist.IsNotFound(err):
		return "not_found"
	case errors.Is(err, anilist.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, anilist.ErrBadResponse):
		return "bad_response"
	default:
		return "transport"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
