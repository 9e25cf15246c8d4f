package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"mercator-hq/callisto/pkg/ratelimit/storage"
)

func Benchmark_SlidingWindow_Take(b *testing.B) {
	w := newSlidingWindow(windowDuration, windowGranularity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.take(1 << 30)
	}
}

func Benchmark_LocalLimiter_Allow(b *testing.B) {
	l := NewLocalLimiter(1<<30, storage.NewMemoryBackend(), nil, nil)
	defer l.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := l.Allow(ctx, "bench"); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_LocalLimiter_Allow_Parallel(b *testing.B) {
	l := NewLocalLimiter(1<<30, storage.NewMemoryBackend(), nil, nil)
	defer l.Close()
	ctx := context.Background()

	var seq atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		key := fmt.Sprintf("bench-%d", seq.Add(1)%16)
		for pb.Next() {
			if _, err := l.Allow(ctx, key); err != nil {
				b.Fatal(err)
			}
		}
	})
}
