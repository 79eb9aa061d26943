package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/lazy-cache/engine"
	"github.com/krisalay/lazy-cache/eviction"
	"github.com/krisalay/lazy-cache/expiration"
	"github.com/krisalay/lazy-cache/refresh"
	"github.com/krisalay/lazy-cache/shard"
	"github.com/krisalay/lazy-cache/types"
)

type config[K comparable, V any] struct {
	maxSize     int
	shards      int
	ttl         time.Duration
	maxStale    time.Duration
	invalidator expiration.Predicate[V]
	allowStale  bool
	clock       types.Clock
	logger      *slog.Logger
	noLogger    bool
	hooks       []refresh.Hook[K]
	asyncBuffer int
	metrics     types.Metrics
}

func defaultConfig[K comparable, V any]() config[K, V] {
	return config[K, V]{
		shards:  shard.DefaultShards,
		clock:   types.SystemClock{},
		metrics: types.NoopMetrics{},
	}
}

// Option configures a LazyCache built by New.
type Option[K comparable, V any] func(*config[K, V])

// WithMaxSize bounds the number of populated entries. Zero means unbounded.
func WithMaxSize[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.maxSize = n
	}
}

// WithShards sets how many shards the base store uses.
func WithShards[K comparable, V any](n int) Option[K, V] {
	return func(c *config[K, V]) {
		c.shards = n
	}
}

/*
WithTTL sets the age at which an entry is stale.

Without stale serving, stale entries are dropped on read and recomputed.
With stale serving, stale entries are recomputed on read but kept (and
served) if the recomputation fails.
*/
func WithTTL[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.ttl = d
	}
}

// WithMaxStale limits how long past its TTL a stale value may still be served.
func WithMaxStale[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.maxStale = d
	}
}

// WithInvalidator sets the predicate used to drop entries on read.
// It replaces the one derived from WithTTL/WithMaxStale.
func WithInvalidator[K comparable, V any](p expiration.Predicate[V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.invalidator = p
	}
}

// WithAllowStale keeps serving the previous value when a refresh fails.
func WithAllowStale[K comparable, V any](allow bool) Option[K, V] {
	return func(c *config[K, V]) {
		c.allowStale = allow
	}
}

// WithClock sets the time source. Useful for testing TTL behavior.
func WithClock[K comparable, V any](clk types.Clock) Option[K, V] {
	return func(c *config[K, V]) {
		c.clock = clk
	}
}

// WithLogger sets the logger for refresh events. A nil logger disables logging.
// Without this option slog.Default() is used.
func WithLogger[K comparable, V any](l *slog.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.logger = l
		c.noLogger = l == nil
	}
}

// WithHook adds a refresh observer.
func WithHook[K comparable, V any](h refresh.Hook[K]) Option[K, V] {
	return func(c *config[K, V]) {
		c.hooks = append(c.hooks, h)
	}
}

// WithAsyncHooks delivers hook events from a background worker with the given buffer.
// Events are dropped when the buffer is full. Call Close to flush it.
func WithAsyncHooks[K comparable, V any](buffer int) Option[K, V] {
	return func(c *config[K, V]) {
		c.asyncBuffer = buffer
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics[K comparable, V any](m types.Metrics) Option[K, V] {
	return func(c *config[K, V]) {
		c.metrics = m
	}
}

func invalid(option string, value any, format string, args ...any) error {
	err := errors.Newf(errors.CodeInvalidConfig, format, args...)
	err = errors.WithContext(err, "option", option)
	return errors.WithContext(err, "value", fmt.Sprint(value))
}

func (c *config[K, V]) validate() error {
	switch {
	case c.maxSize < 0:
		return invalid("max_size", c.maxSize, "max size must not be negative")
	case c.shards <= 0:
		return invalid("shards", c.shards, "shard count must be positive")
	case c.ttl < 0:
		return invalid("ttl", c.ttl, "ttl must not be negative")
	case c.maxStale < 0:
		return invalid("max_stale", c.maxStale, "max stale must not be negative")
	case c.clock == nil:
		return invalid("clock", nil, "clock must not be nil")
	case c.metrics == nil:
		return invalid("metrics", nil, "metrics must not be nil")
	case hasNil(c.hooks):
		return invalid("hook", nil, "hook must not be nil")
	case c.asyncBuffer < 0:
		return invalid("async_buffer", c.asyncBuffer, "async buffer must not be negative")
	}
	return nil
}

func hasNil[K comparable](hooks []refresh.Hook[K]) bool {
	for _, h := range hooks {
		if h == nil {
			return true
		}
	}
	return false
}

/*
predicates derives the two staleness checks from the configuration.

- soft: entries the engine recomputes on read while keeping them as fallback
- hard: entries the invalidation decorator drops on read

Without stale serving the TTL is hard. With stale serving it is soft, and the
hard limit (if any) is TTL plus the max staleness.
*/
func (c *config[K, V]) predicates() (soft, hard expiration.Predicate[V]) {
	if c.allowStale && c.ttl > 0 {
		soft = expiration.AfterWrite[V]{TTL: c.ttl, Clock: c.clock}
	}

	switch {
	case c.invalidator != nil:
		hard = c.invalidator
	case c.ttl > 0 && !c.allowStale:
		hard = expiration.AfterWrite[V]{TTL: c.ttl, Clock: c.clock}
	case c.ttl > 0 && c.maxStale > 0:
		hard = expiration.AfterWrite[V]{TTL: c.ttl + c.maxStale, Clock: c.clock}
	}
	return soft, hard
}

func (c *config[K, V]) hook() refresh.Hook[K] {
	hooks := make(refresh.Hooks[K], 0, len(c.hooks)+1)
	if !c.noLogger {
		hooks = append(hooks, refresh.NewLogHook[K](c.logger))
	}
	hooks = append(hooks, c.hooks...)

	var h refresh.Hook[K] = hooks
	if len(hooks) == 1 {
		h = hooks[0]
	}
	if c.asyncBuffer > 0 {
		h = refresh.NewAsyncHook(h, c.asyncBuffer)
	}
	return h
}

/*
New builds a LazyCache over the default store chain:

	invalidation decorator → capacity decorator → sharded base store

Decorators that the configuration does not need are left out.
Misconfiguration is reported here, never at call time.
*/
func New[K comparable, V any](loader types.Loader[K, V], opts ...Option[K, V]) (*LazyCache[K, V], error) {
	cfg := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var store types.Store[K, V] = shard.New[K, V](cfg.shards, cfg.clock)

	if cfg.maxSize > 0 {
		bounded, err := eviction.NewBoundedStore(store, cfg.maxSize, eviction.FIFO, cfg.metrics)
		if err != nil {
			return nil, err
		}
		store = bounded
	}

	soft, hard := cfg.predicates()
	if hard != nil {
		store = expiration.NewStore(store, hard, cfg.metrics)
	}

	hook := cfg.hook()
	eng, err := engine.NewCacheEngine(loader, soft, cfg.allowStale, hook, cfg.metrics)
	if err != nil {
		if closer, ok := hook.(interface{ Close() }); ok {
			closer.Close()
		}
		return nil, err
	}

	return NewLazyCache(store, eng), nil
}
