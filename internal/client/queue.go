package client

import (
	"context"
	stderrors "errors"
	"sync"
)

// ErrQueueClosed is returned by Queue.Do after Close.
var ErrQueueClosed = stderrors.New("queue closed")

// Queue runs submitted functions one at a time, in submission order, on a
// single goroutine. The dashboard sends every mutate-then-refresh pair
// through one so two toggles can't interleave their requests.
type Queue struct {
	jobs      chan job
	done      chan struct{} // closed by Close
	stopped   chan struct{} // closed when the worker exits
	closeOnce sync.Once
}

type job struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// NewQueue starts a queue that buffers up to size pending jobs.
func NewQueue(size int) *Queue {
	if size < 0 {
		size = 0
	}
	q := &Queue{
		jobs:    make(chan job, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			q.drain()
			return
		case j := <-q.jobs:
			q.exec(j)
		}
	}
}

func (q *Queue) exec(j job) {
	if err := j.ctx.Err(); err != nil {
		j.result <- err
		return
	}
	j.result <- j.fn(j.ctx)
}

// drain fails anything still buffered after Close.
func (q *Queue) drain() {
	for {
		select {
		case j := <-q.jobs:
			j.result <- ErrQueueClosed
		default:
			return
		}
	}
}

// Do enqueues fn and waits for it to finish. If ctx ends first Do returns
// ctx.Err(); fn may still run later but sees the cancelled context.
func (q *Queue) Do(ctx context.Context, fn func(context.Context) error) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.jobs <- j:
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stopped:
		// The job may have been finished or drained just before the worker exited.
		select {
		case err := <-j.result:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

// Close stops the worker after the current job. Pending jobs fail with
// ErrQueueClosed. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	<-q.stopped
}
