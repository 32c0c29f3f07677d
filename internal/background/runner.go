package background

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task is a unit of detached work. The runner supplies a context that is
// never tied to any request; a caller disconnecting must not cancel an
// in-flight cache write or activity flush.
type Task func(ctx context.Context)

// Runner executes fire-and-forget tasks on a single worker goroutine.
// Submissions never block the request path: when the buffer is full the
// task is dropped and counted.
type Runner struct {
	ch        chan Task
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// New creates a [Runner] with the given submission buffer and starts its
// worker.
func New(buffer int) *Runner {
	if buffer <= 0 {
		buffer = 1
	}

	r := &Runner{
		ch:   make(chan Task, buffer),
		done: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()

	for {
		select {
		case task := <-r.ch:
			task(context.Background())
		case <-r.done:
			for {
				select {
				case task := <-r.ch:
					task(context.Background())
				default:
					return
				}
			}
		}
	}
}

// Submit enqueues a task without blocking. Returns false when the task was
// dropped because the runner is closed or its buffer is full.
func (r *Runner) Submit(task Task) bool {
	if r == nil || task == nil || r.closed.Load() {
		return false
	}

	select {
	case r.ch <- task:
		return true
	case <-r.done:
		return false
	default:
		r.dropped.Add(1)
		return false
	}
}

// SubmitWait enqueues a task, waiting for buffer space until ctx is done
// or the runner closes. Returns false when the task was not accepted.
// Unlike [Runner.Submit] it never drops silently, so it suits callers
// that prefer backpressure over loss.
func (r *Runner) SubmitWait(ctx context.Context, task Task) bool {
	if r == nil || task == nil || r.closed.Load() {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case r.ch <- task:
		return true
	case <-ctx.Done():
		return false
	case <-r.done:
		return false
	}
}

// Flush blocks until every task submitted before the call has run. Intended
// for tests and shutdown paths, not the request path.
func (r *Runner) Flush() {
	if r == nil || r.closed.Load() {
		return
	}

	settled := make(chan struct{})
	select {
	case r.ch <- func(context.Context) { close(settled) }:
	case <-r.done:
		return
	}
	<-settled
}

// Close drains queued tasks and stops the worker. Safe to call more than
// once.
func (r *Runner) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
	})
}

// Dropped reports how many tasks were discarded due to a full buffer.
func (r *Runner) Dropped() uint64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}
