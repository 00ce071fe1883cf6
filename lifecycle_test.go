package numtree_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/numtree"
)

// TestNoGoroutineLeaks verifies that the background GC loop stops on Close.
func TestNoGoroutineLeaks(t *testing.T) {
	tests := []struct {
		name     string
		startGC  bool
		maxLeaks int // Allow small variance (runtime background goroutines)
	}{
		{name: "without background GC", startGC: false, maxLeaks: 2},
		{name: "with background GC", startGC: true, maxLeaks: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime.GC()
			time.Sleep(50 * time.Millisecond)

			initial := runtime.NumGoroutine()
			t.Logf("Initial goroutines: %d", initial)

			ix := numtree.New(numtree.WithGCInterval(5*time.Millisecond), numtree.WithGCWorkers(4))
			if tt.startGC {
				require.NoError(t, ix.StartGC())
			}

			ctx := context.Background()
			for i := range 200 {
				require.NoError(t, ix.Add(ctx, "a", uint64(i), float64(i%17)))
				require.NoError(t, ix.Add(ctx, "b", uint64(i), float64(i)))
				if i%3 == 0 {
					require.NoError(t, ix.Delete(ctx, uint64(i)))
				}
			}

			_, err := ix.Query(ctx, "a", numtree.NewFilter(0, 10))
			require.NoError(t, err)

			// Let a few GC ticks run.
			time.Sleep(30 * time.Millisecond)

			require.NoError(t, ix.Close())

			deadline := time.Now().Add(2 * time.Second)
			var final, leaked int
			for {
				runtime.GC()
				time.Sleep(20 * time.Millisecond)

				final = runtime.NumGoroutine()
				leaked = final - initial
				if leaked <= tt.maxLeaks || time.Now().After(deadline) {
					break
				}
			}

			t.Logf("Final goroutines: %d (leaked: %d)", final, leaked)

			if leaked > tt.maxLeaks {
				buf := make([]byte, 1<<20)
				n := runtime.Stack(buf, true)
				t.Errorf("Goroutine leak detected: started with %d, ended with %d (max allowed: %d)\n%s",
					initial, final, tt.maxLeaks, buf[:n])
			}
		})
	}
}

// TestCloseWhileGCRunning closes the index while GC passes are in flight.
func TestCloseWhileGCRunning(t *testing.T) {
	ix := numtree.New(numtree.WithGCInterval(time.Millisecond), numtree.WithGCRate(10))

	ctx := context.Background()
	for i := range 500 {
		require.NoError(t, ix.Add(ctx, "a", uint64(i), float64(i)))
		require.NoError(t, ix.Delete(ctx, uint64(i)))
	}
	require.NoError(t, ix.StartGC())
	time.Sleep(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- ix.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while GC was rate limited")
	}
}

// TestCloseIdempotent verifies that repeated Close calls are safe.
func TestCloseIdempotent(t *testing.T) {
	ix := numtree.New()
	require.NoError(t, ix.StartGC())

	assert.NoError(t, ix.Close(), "First close should succeed")
	assert.ErrorIs(t, ix.Close(), numtree.ErrClosed, "Second close reports the index as closed")
	assert.ErrorIs(t, ix.Close(), numtree.ErrClosed)
}
