package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

func TestReconcile_MergesRemoteSnapshot(t *testing.T) {
	r := newTestRig(t)
	r.dispatcher.st.Contacts["local-only"] = &domain.Contact{ID: "local-only", Name: "Offline Draft"}
	r.svc.SetSnapshot(remote.Snapshot{
		domain.EntityContact: {
			{"id": "remote-1", "name": "Remote"},
		},
		domain.EntityAccount: {
			{"id": "cash", "name": "Cash", "balance": "500"},
		},
	})

	require.NoError(t, r.engine.Reconcile(context.Background()))

	actions := r.dispatcher.dispatched()
	require.Len(t, actions, 1)
	assert.Equal(t, state.ReconcileMerge, actions[0].Kind)
	assert.Equal(t, state.OriginRemote, actions[0].Origin)

	// Local-preferring, remote-overwriting merge.
	assert.Contains(t, r.dispatcher.st.Contacts, "local-only")
	assert.Contains(t, r.dispatcher.st.Contacts, "remote-1")
	assert.True(t, r.dispatcher.st.Accounts["cash"].Balance.Equal(dec("500")))
}

func TestReconcile_NetworkFailureLeavesStateAlone(t *testing.T) {
	r := newTestRig(t)
	r.svc.FailWith("*", &remote.RequestError{Class: remote.FailureNetwork, Op: "fetch snapshot"})

	err := r.engine.Reconcile(context.Background())

	require.Error(t, err)
	assert.Empty(t, r.dispatcher.dispatched())
	assert.False(t, r.engine.authHold.Load())
}

func TestReconcile_AuthFailureSuspendsSync(t *testing.T) {
	r := newTestRig(t)
	r.svc.FailWith("*", &remote.RequestError{Class: remote.FailureAuth, Op: "fetch snapshot", Status: 401})

	err := r.engine.Reconcile(context.Background())

	require.Error(t, err)
	assert.True(t, r.engine.authHold.Load())
}
