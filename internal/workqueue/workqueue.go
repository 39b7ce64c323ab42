// Package workqueue runs units of work with bounded parallelism.
package workqueue

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Queue runs functions concurrently up to a limit.
// There is no implicit synchronization point: Wait must be called
// before the results of the queued work are used.
type Queue struct {
	limit       int
	synchronous bool

	lock  sync.Mutex
	group *errgroup.Group
	err   error // First error in synchronous mode.

	queued    atomic.Int64
	completed atomic.Int64
}

type Option func(*Queue)

// WithLimit sets the maximum number of concurrently running functions.
// The default is runtime.NumCPU(). A limit below 1 removes the limit.
func WithLimit(n int) Option {
	return func(q *Queue) { q.limit = n }
}

// WithSynchronous runs every function immediately on the calling goroutine.
func WithSynchronous(enabled bool) Option {
	return func(q *Queue) { q.synchronous = enabled }
}

func New(opts ...Option) *Queue {
	q := &Queue{limit: runtime.NumCPU()}
	for _, o := range opts {
		o(q)
	}
	q.group = q.newGroup()
	return q
}

func (q *Queue) newGroup() *errgroup.Group {
	g := new(errgroup.Group)
	if q.limit > 0 {
		g.SetLimit(q.limit)
	}
	return g
}

// Synchronous reports whether functions run on the calling goroutine.
func (q *Queue) Synchronous() bool { return q.synchronous }

// Go queues fn, blocking while the limit is reached.
// Functions queued after an error still run.
func (q *Queue) Go(fn func() error) {
	q.queued.Add(1)
	if q.synchronous {
		err := fn()
		q.completed.Add(1)
		if err != nil {
			q.lock.Lock()
			if q.err == nil {
				q.err = err
			}
			q.lock.Unlock()
		}
		return
	}
	q.lock.Lock()
	g := q.group
	q.lock.Unlock()
	g.Go(func() error {
		defer q.completed.Add(1)
		return fn()
	})
}

// Wait blocks until all queued functions returned and returns the
// first error. The queue can be reused afterwards.
func (q *Queue) Wait() error {
	q.lock.Lock()
	g := q.group
	q.group = q.newGroup()
	err := q.err
	q.err = nil
	q.lock.Unlock()
	if q.synchronous {
		return err
	}
	return g.Wait()
}

// Stats returns the number of queued and completed functions.
func (q *Queue) Stats() (queued, completed int64) {
	return q.queued.Load(), q.completed.Load()
}
