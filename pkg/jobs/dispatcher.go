// Package jobs provides a small in-process worker pool for fire-and-forget
// background work such as notification delivery.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options tunes a dispatcher's worker pool and retry behaviour.
type Options struct {
	Workers int
	Buffer  int
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
}

type task[T any] struct {
	payload  T
	attempt  int
	accepted time.Time
}

// Dispatcher fans typed payloads out to a pool of workers. Each payload is
// handed to the run function; failures are retried in place with a fixed
// backoff, then dropped.
type Dispatcher[T any] struct {
	name string
	run  func(context.Context, T) error
	opts Options

	tasks   chan task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewDispatcher builds a dispatcher around the run function. Zero option
// fields fall back to modest defaults suited to notification volume.
func NewDispatcher[T any](name string, run func(context.Context, T) error, opts Options) *Dispatcher[T] {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher[T]{
		name:  name,
		run:   run,
		opts:  opts,
		tasks: make(chan task[T], opts.Buffer),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (d *Dispatcher[T]) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.running = true
	d.opts.Logger.Info("dispatcher started",
		zap.String("dispatcher", d.name),
		zap.Int("workers", d.opts.Workers))
}

// Stop cancels the workers and blocks until they exit. Buffered payloads
// that have not started are discarded.
func (d *Dispatcher[T]) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.mu.Unlock()
	d.wg.Wait()
	d.opts.Logger.Info("dispatcher stopped", zap.String("dispatcher", d.name))
}

// Dispatch hands a payload to the pool. It blocks while the buffer is full
// and errors if the dispatcher has not started or has stopped.
func (d *Dispatcher[T]) Dispatch(payload T) error {
	d.mu.Lock()
	ctx := d.ctx
	running := d.running
	d.mu.Unlock()

	if !running {
		return fmt.Errorf("dispatcher %s not started", d.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("dispatcher %s stopped: %w", d.name, ctx.Err())
	case d.tasks <- task[T]{payload: payload, accepted: time.Now().UTC()}:
		return nil
	}
}

func (d *Dispatcher[T]) work() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case tk := <-d.tasks:
			d.process(tk)
		}
	}
}

// process retries inside the worker so a flaky sink slows delivery down
// instead of spawning unbounded retry goroutines.
func (d *Dispatcher[T]) process(tk task[T]) {
	for {
		err := d.run(d.ctx, tk.payload)
		if err == nil {
			return
		}
		tk.attempt++
		if tk.attempt > d.opts.Retries {
			d.opts.Logger.Error("task dropped after retries",
				zap.String("dispatcher", d.name),
				zap.Int("attempts", tk.attempt),
				zap.Error(err))
			return
		}
		d.opts.Logger.Warn("task failed, retrying",
			zap.String("dispatcher", d.name),
			zap.Int("attempt", tk.attempt),
			zap.Error(err))
		select {
		case <-d.ctx.Done():
			return
		case <-time.After(d.opts.Backoff):
		}
	}
}
