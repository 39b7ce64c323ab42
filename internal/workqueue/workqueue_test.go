package workqueue_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrckit/localize/internal/workqueue"
)

func TestQueue(t *testing.T) {
	t.Parallel()

	q := workqueue.New(workqueue.WithLimit(3))
	var running, peak, done atomic.Int64
	release := make(chan struct{})
	for range 12 {
		q.Go(func() error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			done.Add(1)
			return nil
		})
		if n, _ := q.Stats(); n == 3 {
			close(release)
		}
	}
	require.NoError(t, q.Wait())
	require.Equal(t, int64(12), done.Load())
	require.LessOrEqual(t, peak.Load(), int64(3))

	queued, completed := q.Stats()
	require.Equal(t, int64(12), queued)
	require.Equal(t, int64(12), completed)
}

func TestQueueError(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	f := func(t *testing.T, q *workqueue.Queue) {
		t.Helper()
		var ran atomic.Int64
		for i := range 8 {
			q.Go(func() error {
				ran.Add(1)
				if i == 2 {
					return errA
				}
				return nil
			})
		}
		require.ErrorIs(t, q.Wait(), errA)
		require.Equal(t, int64(8), ran.Load(), "all functions run")

		// The queue is reusable and the error is reset.
		q.Go(func() error { return nil })
		require.NoError(t, q.Wait())
	}

	f(t, workqueue.New())
	f(t, workqueue.New(workqueue.WithSynchronous(true)))
}

func TestQueueSynchronous(t *testing.T) {
	t.Parallel()

	q := workqueue.New(workqueue.WithSynchronous(true))
	require.True(t, q.Synchronous())
	var order []int
	for i := range 5 {
		q.Go(func() error {
			order = append(order, i)
			return nil
		})
		require.Len(t, order, i+1, "runs before Go returns")
	}
	require.NoError(t, q.Wait())
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}
