package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/krisalay/lazy-cache"
	"github.com/krisalay/lazy-cache/types"
)

// ================= UPSTREAM =================

// Upstream plays the slow system of record the cache sits in front of.
type Upstream struct {
	mu    sync.RWMutex
	data  map[string]string
	down  atomic.Bool
	loads atomic.Int64
}

func NewUpstream() *Upstream {
	return &Upstream{data: make(map[string]string)}
}

func (u *Upstream) Load(ctx context.Context, key string) (string, error) {
	u.loads.Add(1)
	time.Sleep(50 * time.Millisecond)

	if u.down.Load() {
		return "", errors.New("upstream unavailable")
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	if !strings.HasPrefix(key, "k") {
		fmt.Println("UPSTREAM → load:", key)
	}
	if v, ok := u.data[key]; ok {
		return v, nil
	}
	return "generated-" + key, nil
}

func (u *Upstream) Put(key, value string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.data[key] = value
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("EVICTION POLICY : FIFO")
	fmt.Println("SHARDS          : 4")
	fmt.Println("TTL             : 1s (stale served on failure, up to 10s)")
	fmt.Println("CAPACITY        : 20 keys")

	// ---------------- Upstream ----------------
	upstream := NewUpstream()
	upstream.Put("a", "alpha")
	upstream.Put("b", "beta")

	// ---------------- Metrics ----------------
	metrics := &types.Counters{}

	// ---------------- Logger ----------------
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// ---------------- Cache ----------------
	c, err := cache.New[string, string](upstream,
		cache.WithShards[string, string](4),
		cache.WithMaxSize[string, string](20),
		cache.WithTTL[string, string](time.Second),
		cache.WithAllowStale[string, string](true),
		cache.WithMaxStale[string, string](10*time.Second),
		cache.WithLogger[string, string](logger),
		cache.WithAsyncHooks[string, string](256),
		cache.WithMetrics[string, string](metrics),
	)
	if err != nil {
		logger.Error("cache misconfigured", "error", err)
		os.Exit(1)
	}

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	v, _ := c.Get(ctx, "a")
	fmt.Println("CACHE  → GET a =", v)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	v, _ = c.Get(ctx, "a")
	fmt.Println("CACHE  → GET a =", v)

	// ====================================================
	fmt.Println("\n==================== 3) TTL REFRESH ====================")
	upstream.Put("a", "alpha-v2")
	time.Sleep(1100 * time.Millisecond)

	v, _ = c.Get(ctx, "a")
	fmt.Println("CACHE  → GET a after TTL =", v)

	// ====================================================
	fmt.Println("\n==================== 4) SINGLEFLIGHT ====================")

	before := upstream.loads.Load()
	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := c.Get(ctx, "b")
			fmt.Printf("GOROUTINE-%d → GET b = %v\n", id, val)
		}(i)
	}
	wg.Wait()
	fmt.Println("UPSTREAM → loads for b =", upstream.loads.Load()-before)

	// ====================================================
	fmt.Println("\n==================== 5) STALE FALLBACK ====================")

	upstream.down.Store(true)
	time.Sleep(1100 * time.Millisecond)

	v, ok := c.Get(ctx, "b")
	fmt.Println("CACHE  → GET b while upstream is down =", v, ok)

	_, ok = c.Get(ctx, "never-seen")
	fmt.Println("CACHE  → GET never-seen while upstream is down, found =", ok)

	upstream.down.Store(false)

	// ====================================================
	fmt.Println("\n==================== 6) EVICTION ====================")

	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), fmt.Sprint(i))
	}

	fmt.Println("CACHE  → contains a after eviction =", c.Contains("a"))
	fmt.Println("CACHE  → contains k49 =", c.Contains("k49"))
	fmt.Println("CACHE  → count =", c.Count())

	// ====================================================
	fmt.Println("\n==================== 7) REMOVE ====================")

	c.Remove("k49")
	fmt.Println("CACHE  → REMOVE k49")
	fmt.Println("CACHE  → contains k49 after remove =", c.Contains("k49"))

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	c.Close()
	fmt.Println("SYSTEM → cache closed cleanly")

	// ====================================================
	s := metrics.Snapshot()
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS         : %d\n", s.Hits)
	fmt.Printf("MISSES       : %d\n", s.Misses)
	fmt.Printf("HIT RATE     : %.2f\n", s.HitRate())
	fmt.Printf("EVICTIONS    : %d\n", s.Evictions)
	fmt.Printf("EXPIRED      : %d\n", s.Expirations)
	fmt.Printf("REFRESHES    : %d\n", s.Refreshes)
	fmt.Printf("FAILURES     : %d\n", s.RefreshFailures)
	fmt.Printf("STALE SERVED : %d\n", s.StaleServed)
}
