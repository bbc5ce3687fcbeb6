package sync

import (
	"context"
	"path/filepath"
	gosync "sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/outbox"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeDispatcher applies dispatched actions to an owned state and records
// them, standing in for the engine loop.
type fakeDispatcher struct {
	mu      gosync.Mutex
	st      *state.State
	actions []state.Action
}

func newFakeDispatcher(st *state.State) *fakeDispatcher {
	return &fakeDispatcher{st: st}
}

func (d *fakeDispatcher) Dispatch(a state.Action) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
	return state.Apply(d.st, a)
}

func (d *fakeDispatcher) Snapshot() *state.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st.Clone()
}

func (d *fakeDispatcher) dispatched() []state.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]state.Action, len(d.actions))
	copy(out, d.actions)
	return out
}

type testRig struct {
	engine     *Engine
	dispatcher *fakeDispatcher
	svc        *testutil.FakeService
	queue      *outbox.Queue
}

func newTestRig(t *testing.T, opts ...Option) *testRig {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })

	d := newFakeDispatcher(state.New("acme", "user-1"))
	svc := testutil.NewFakeService()
	q := outbox.New(st)
	return &testRig{
		engine:     New(d, q, svc, "acme", "user-1", opts...),
		dispatcher: d,
		svc:        svc,
		queue:      q,
	}
}

func (r *testRig) queueCount(t *testing.T) int {
	t.Helper()
	n, err := r.queue.Count(context.Background(), "acme")
	require.NoError(t, err)
	return n
}
