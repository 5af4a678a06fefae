package podcast

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDispatcherProcessesAllJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	d := NewDispatcher(3, func(ctx context.Context, podcastID string) {
		mu.Lock()
		seen[podcastID]++
		mu.Unlock()
	})
	d.Start(context.Background())

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		d.Enqueue(id)
	}
	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("job %q ran %d times, want 1", id, seen[id])
		}
	}
}

func TestDispatcherDefaultsToOneWorker(t *testing.T) {
	ran := make(chan string, 1)
	d := NewDispatcher(0, func(ctx context.Context, podcastID string) {
		ran <- podcastID
	})
	d.Start(context.Background())
	d.Enqueue("only")
	d.Stop()

	select {
	case id := <-ran:
		if id != "only" {
			t.Errorf("ran job %q, want %q", id, "only")
		}
	default:
		t.Fatal("job was never run")
	}
}

func TestDispatcherStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(2, func(ctx context.Context, podcastID string) {})
	d.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after context cancellation")
	}
}
