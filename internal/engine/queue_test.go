package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

func TestActionQueue_FIFO(t *testing.T) {
	q := newActionQueue()

	for _, id := range []string{"a", "b", "c"} {
		ok := q.Enqueue(state.Action{Kind: state.AccountDelete, EntityID: id})
		require.True(t, ok, "enqueue should succeed")
	}

	for _, want := range []string{"a", "b", "c"} {
		a, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, a.EntityID)
	}
}

func TestActionQueue_TryDequeue_Empty(t *testing.T) {
	q := newActionQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestActionQueue_SignalCoalesces(t *testing.T) {
	q := newActionQueue()

	// Many enqueues, one pending signal.
	for i := 0; i < 10; i++ {
		q.Enqueue(state.Action{Kind: state.TenantReset, Tenant: "t"})
	}

	select {
	case <-q.Wait():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected a pending signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signal should have been consumed")
	default:
	}
	assert.Equal(t, 10, q.Len())
}

func TestActionQueue_EnqueueAfterClose(t *testing.T) {
	q := newActionQueue()
	q.Close()

	ok := q.Enqueue(state.Action{Kind: state.TenantReset, Tenant: "t"})
	assert.False(t, ok)
}

func TestActionQueue_CloseUnblocksWaiters(t *testing.T) {
	q := newActionQueue()

	done := make(chan struct{})
	go func() {
		<-q.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("waiter did not unblock on close")
	}
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(41)
	assert.Equal(t, int64(42), resumed.Next())
}
