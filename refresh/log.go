package refresh

import (
	"context"
	"log/slog"
)

// LogHook renders refresh events through a structured logger.
type LogHook[K comparable] struct {
	logger *slog.Logger
}

// NewLogHook returns a hook logging to logger, or to slog.Default() when nil.
func NewLogHook[K comparable](logger *slog.Logger) *LogHook[K] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHook[K]{logger: logger.With("component", "lazy-cache")}
}

func (h *LogHook[K]) OnRefresh(ctx context.Context, key K, stale bool) {
	if stale {
		h.logger.InfoContext(ctx, "refreshing stale key", "key", key)
		return
	}
	h.logger.DebugContext(ctx, "computing missing key", "key", key)
}

func (h *LogHook[K]) OnRefreshError(ctx context.Context, key K, err error, staleServed bool) {
	h.logger.ErrorContext(ctx, "exception refreshing key",
		"key", key,
		"error", err,
		"stale_served", staleServed,
	)
}
