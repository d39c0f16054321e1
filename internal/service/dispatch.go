package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher schedules a unit of background work detached from the caller.
// The orchestrator depends on this capability rather than on a concrete
// concurrency primitive so tests can run workflows synchronously.
type Dispatcher interface {
	Dispatch(task func(ctx context.Context))
}

// AsyncDispatcher runs every task on its own goroutine against a base context
// that outlives the originating request. Once dispatched, a task cannot be
// cancelled by the caller.
type AsyncDispatcher struct {
	base context.Context
	log  zerolog.Logger
	wg   sync.WaitGroup
}

// NewAsyncDispatcher creates a dispatcher bound to the given base context.
func NewAsyncDispatcher(base context.Context, log zerolog.Logger) *AsyncDispatcher {
	if base == nil {
		base = context.Background()
	}
	return &AsyncDispatcher{base: base, log: log}
}

// Dispatch launches the task and returns immediately. A panic inside a task
// is logged instead of taking the process down.
func (d *AsyncDispatcher) Dispatch(task func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Msg("background task panicked")
			}
		}()
		task(d.base)
	}()
}

// Drain waits for in-flight tasks to finish, up to the given timeout. It
// reports whether everything completed in time.
func (d *AsyncDispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
