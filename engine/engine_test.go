package engine

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/lazy-cache/expiration"
	"github.com/krisalay/lazy-cache/types"
)

// MockHook is a mock implementation of the refresh.Hook interface for testing
type MockHook struct {
	mock.Mock
}

func (m *MockHook) OnRefresh(ctx context.Context, key string, stale bool) {
	m.Called(ctx, key, stale)
}

func (m *MockHook) OnRefreshError(ctx context.Context, key string, err error, staleServed bool) {
	m.Called(ctx, key, err, staleServed)
}

func constLoader(v string) types.LoaderFunc[string, string] {
	return func(context.Context, string) (string, error) { return v, nil }
}

func TestNewCacheEngineRequiresLoader(t *testing.T) {
	_, err := NewCacheEngine[string, string](nil, nil, false, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	var nilFunc types.LoaderFunc[string, string]
	_, err = NewCacheEngine[string, string](nilFunc, nil, false, nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestNewCacheEngineDefaults(t *testing.T) {
	e, err := NewCacheEngine[string, string](constLoader("v"), nil, false, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, e.Refresh)
	assert.Equal(t, types.NoopMetrics{}, e.Metrics)
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := types.Entry[string]{Value: "v", HasValue: true, Created: now.Add(-time.Hour)}
	fresh := types.Entry[string]{Value: "v", HasValue: true, Created: now}
	placeholder := types.Entry[string]{Created: now}

	t.Run("without soft predicate", func(t *testing.T) {
		e, err := NewCacheEngine[string, string](constLoader("v"), nil, false, nil, nil)
		require.NoError(t, err)

		assert.True(t, e.NeedsRefresh(placeholder))
		assert.False(t, e.NeedsRefresh(old))
		assert.False(t, e.NeedsRefresh(fresh))
	})

	t.Run("with soft predicate", func(t *testing.T) {
		soft := expiration.PredicateFunc[string](func(ent types.Entry[string]) bool {
			return ent.Created.Before(now)
		})
		e, err := NewCacheEngine[string, string](constLoader("v"), soft, true, nil, nil)
		require.NoError(t, err)

		assert.True(t, e.NeedsRefresh(placeholder))
		assert.True(t, e.NeedsRefresh(old))
		assert.False(t, e.NeedsRefresh(fresh))
	})
}

func TestLoadSuccess(t *testing.T) {
	ctx := context.Background()
	hook := &MockHook{}
	hook.On("OnRefresh", ctx, "k", true).Once()
	metrics := &types.Counters{}

	e, err := NewCacheEngine[string, string](constLoader("v"), nil, true, hook, metrics)
	require.NoError(t, err)

	v, err := e.Load(ctx, "k", true)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, int64(1), metrics.Snapshot().Refreshes)
	hook.AssertExpectations(t)
}

func TestLoadWrapsError(t *testing.T) {
	boom := stderrors.New("boom")
	loader := types.LoaderFunc[string, string](func(context.Context, string) (string, error) {
		return "partial", boom
	})

	e, err := NewCacheEngine[string, string](loader, nil, false, nil, nil)
	require.NoError(t, err)

	v, err := e.Load(context.Background(), "k", false)
	require.Error(t, err)
	assert.Empty(t, v, "a failed load never yields a value")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, errors.CodeExecutionFailed, errors.GetCode(err))

	var perr errors.PlatformError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "k", perr.Context()["key"])
}

func TestLoadRecoversPanic(t *testing.T) {
	loader := types.LoaderFunc[string, string](func(context.Context, string) (string, error) {
		panic("kaboom")
	})

	e, err := NewCacheEngine[string, string](loader, nil, false, nil, nil)
	require.NoError(t, err)

	v, err := e.Load(context.Background(), "k", false)
	require.Error(t, err)
	assert.Empty(t, v)
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	assert.Contains(t, err.Error(), "kaboom")
}

func TestLoadIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := types.LoaderFunc[string, string](func(ctx context.Context, _ string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "computed", nil
	})

	e, err := NewCacheEngine[string, string](loader, nil, false, nil, nil)
	require.NoError(t, err)

	v, err := e.Load(ctx, "k", false)
	require.NoError(t, err)
	assert.Equal(t, "computed", v)
}

func TestKeepStale(t *testing.T) {
	populated := types.NewWritableEntry("v", time.Now())
	placeholder := types.NewPlaceholder[string](time.Now())

	allow, err := NewCacheEngine[string, string](constLoader("v"), nil, true, nil, nil)
	require.NoError(t, err)
	deny, err := NewCacheEngine[string, string](constLoader("v"), nil, false, nil, nil)
	require.NoError(t, err)

	assert.True(t, allow.KeepStale(populated, true))
	assert.False(t, allow.KeepStale(placeholder, true))
	assert.False(t, allow.KeepStale(nil, false))
	assert.False(t, deny.KeepStale(populated, true))
}

func TestOnLoadError(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("boom")
	hook := &MockHook{}
	hook.On("OnRefreshError", ctx, "k", boom, true).Once()
	hook.On("OnRefreshError", ctx, "k", boom, false).Once()
	metrics := &types.Counters{}

	e, err := NewCacheEngine[string, string](constLoader("v"), nil, true, hook, metrics)
	require.NoError(t, err)

	e.OnLoadError(ctx, "k", boom, true)
	e.OnLoadError(ctx, "k", boom, false)

	s := metrics.Snapshot()
	assert.Equal(t, int64(2), s.RefreshFailures)
	assert.Equal(t, int64(1), s.StaleServed)
	hook.AssertExpectations(t)
}
