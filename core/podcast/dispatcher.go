package podcast

import (
	"context"
	"sync"

	"podforge/logger"
)

// Dispatcher is the fire-and-forget boundary between the request cycle and
// the generation pipeline: requests enqueue a job id and return, a bounded
// pool of workers drains the queue. Jobs for different podcasts run fully
// concurrently; within one job the stages stay strictly sequential.
type Dispatcher struct {
	jobs    chan string
	workers int
	run     func(ctx context.Context, podcastID string)
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given worker count.
func NewDispatcher(workers int, run func(ctx context.Context, podcastID string)) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		jobs:    make(chan string, 64),
		workers: workers,
		run:     run,
	}
}

// Start launches the worker pool. Workers exit when the context is
// cancelled or the queue is closed.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case id, ok := <-d.jobs:
					if !ok {
						return
					}
					logger.Debug("[Dispatcher] worker 领取任务",
						logger.Int("worker", worker),
						logger.String("podcastId", id))
					d.run(ctx, id)
				}
			}
		}(i)
	}
}

// Enqueue hands a job to the pool. It blocks only when the queue buffer is
// full.
func (d *Dispatcher) Enqueue(podcastID string) {
	d.jobs <- podcastID
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}
