package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/lazy-cache"
	"github.com/krisalay/lazy-cache/types"
)

// ================= LOADER =================

// slowLoader simulates a backend that takes a while to answer.
type slowLoader struct {
	latency time.Duration
	calls   atomic.Int64
}

func (l *slowLoader) Load(_ context.Context, key string) (int, error) {
	l.calls.Add(1)
	time.Sleep(l.latency)
	return len(key), nil
}

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	// ---------------- Cache Config ----------------
	const (
		shards     = 64
		capacity   = 50000
		hotKeys    = 20000
		goroutines = 200
		opsPerG    = 5000
		latency    = time.Millisecond
	)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards        :", shards)
	fmt.Println("Capacity      :", capacity)
	fmt.Println("Hot Keys      :", hotKeys)
	fmt.Println("Goroutines    :", goroutines)
	fmt.Println("Ops/Goroutine :", opsPerG)
	fmt.Println("Loader Latency:", latency)
	fmt.Println("---------------------------------")

	// ---------------- Cache ----------------
	loader := &slowLoader{latency: latency}
	metrics := &types.Counters{}

	c, err := cache.New[string, int](loader,
		cache.WithShards[string, int](shards),
		cache.WithMaxSize[string, int](capacity),
		cache.WithTTL[string, int](time.Minute),
		cache.WithLogger[string, int](nil),
		cache.WithMetrics[string, int](metrics),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cache:", err)
		os.Exit(1)
	}

	keys := make([]string, hotKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	// ---------------- Load Test ----------------
	// Every goroutine walks the same key space, so cold keys are requested by
	// many callers at once and each one should be loaded exactly once.
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				if _, ok := c.Get(gctx, keys[(i+j)%hotKeys]); !ok {
					return fmt.Errorf("goroutine %d: no value for %s", i, keys[(i+j)%hotKeys])
				}
			}
			return nil
		})
	}

	err = g.Wait()
	c.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "benchmark:", err)
		os.Exit(1)
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG
	s := metrics.Snapshot()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Loader Calls     : %d\n", loader.calls.Load())
	fmt.Printf("Hit Rate         : %.4f\n", s.HitRate())
	fmt.Printf("Evictions        : %d\n", s.Evictions)
	fmt.Println("=========================================")
}
