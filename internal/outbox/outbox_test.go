package outbox

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return New(st)
}

func item(op domain.Operation, entityType domain.EntityType, id string, payload map[string]any) Item {
	return Item{
		TenantID:   "acme",
		UserID:     "user-1",
		EntityType: entityType,
		EntityID:   id,
		Operation:  op,
		Payload:    payload,
	}
}

func TestQueue_PendingIsEnqueueOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		_, queued, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityContact, id,
			map[string]any{"id": id, "n": i}))
		require.NoError(t, err)
		require.True(t, queued)
	}

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].EntityID)
	assert.Equal(t, "b", items[1].EntityID)
	assert.Equal(t, "c", items[2].EntityID)
}

func TestQueue_DuplicatePayloadIsDropped(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	payload := map[string]any{"id": "inv-1", "amount": "300"}

	_, queued, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityInvoice, "inv-1", payload))
	require.NoError(t, err)
	assert.True(t, queued)

	// Same content again: superseded by the already-pending item.
	_, queued, err = q.Enqueue(ctx, item(domain.OpUpdate, domain.EntityInvoice, "inv-1", payload))
	require.NoError(t, err)
	assert.False(t, queued)

	n, err := q.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQueue_ChangedPayloadIsQueued(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, queued, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1", "amount": "300"}))
	require.NoError(t, err)
	require.True(t, queued)

	_, queued, err = q.Enqueue(ctx, item(domain.OpUpdate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1", "amount": "350"}))
	require.NoError(t, err)
	assert.True(t, queued)
}

func TestQueue_DeletePrunesPendingCreateAndItself(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	// Created and edited offline, then deleted before any delivery: the
	// remote never saw the entity, so nothing at all should stay queued.
	_, queued, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityContact, "c1",
		map[string]any{"id": "c1", "name": "Ada"}))
	require.NoError(t, err)
	require.True(t, queued)
	_, queued, err = q.Enqueue(ctx, item(domain.OpUpdate, domain.EntityContact, "c1",
		map[string]any{"id": "c1", "name": "Ada L."}))
	require.NoError(t, err)
	require.True(t, queued)

	_, queued, err = q.Enqueue(ctx, item(domain.OpDelete, domain.EntityContact, "c1",
		map[string]any{"id": "c1"}))
	require.NoError(t, err)
	assert.False(t, queued, "delete of an unsynced create vanishes")

	n, err := q.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueue_DeletePrunesUpdatesButStaysQueued(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	// Only updates pending: the remote already has the entity, so the
	// delete must still be delivered.
	_, queued, err := q.Enqueue(ctx, item(domain.OpUpdate, domain.EntityContact, "c1",
		map[string]any{"id": "c1", "name": "Ada"}))
	require.NoError(t, err)
	require.True(t, queued)

	_, queued, err = q.Enqueue(ctx, item(domain.OpDelete, domain.EntityContact, "c1",
		map[string]any{"id": "c1"}))
	require.NoError(t, err)
	assert.True(t, queued)

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.OpDelete, items[0].Operation)
}

func TestQueue_DeleteDoesNotTouchOtherEntities(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, _, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityContact, "keep",
		map[string]any{"id": "keep"}))
	require.NoError(t, err)
	_, _, err = q.Enqueue(ctx, item(domain.OpCreate, domain.EntityContact, "gone",
		map[string]any{"id": "gone"}))
	require.NoError(t, err)

	_, _, err = q.Enqueue(ctx, item(domain.OpDelete, domain.EntityContact, "gone",
		map[string]any{"id": "gone"}))
	require.NoError(t, err)

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].EntityID)
}

func TestQueue_MarkAttempt(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	queuedItem, queued, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1"}))
	require.NoError(t, err)
	require.True(t, queued)

	require.NoError(t, q.MarkAttempt(ctx, queuedItem.ID, "connection refused"))
	require.NoError(t, q.MarkAttempt(ctx, queuedItem.ID, "timeout"))

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].AttemptCount)
	assert.Equal(t, "timeout", items[0].LastError)
}

func TestQueue_RemoveByEntity(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, _, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1", "v": 1}))
	require.NoError(t, err)
	_, _, err = q.Enqueue(ctx, item(domain.OpUpdate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1", "v": 2}))
	require.NoError(t, err)

	n, err := q.RemoveByEntity(ctx, "acme", domain.EntityInvoice, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := q.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQueue_TenantsAreIsolated(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, _, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityContact, "c1",
		map[string]any{"id": "c1"}))
	require.NoError(t, err)

	other := item(domain.OpCreate, domain.EntityContact, "c2", map[string]any{"id": "c2"})
	other.TenantID = "globex"
	_, _, err = q.Enqueue(ctx, other)
	require.NoError(t, err)

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].EntityID)
}

func TestQueue_PayloadRoundTrips(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, _, err := q.Enqueue(ctx, item(domain.OpCreate, domain.EntityInvoice, "inv-1",
		map[string]any{"id": "inv-1", "amount": "300", "paid": false}))
	require.NoError(t, err)

	items, err := q.Pending(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "300", items[0].Payload["amount"])
	assert.Equal(t, false, items[0].Payload["paid"])
	assert.NotEmpty(t, items[0].PayloadHash)
	assert.False(t, items[0].EnqueuedAt.IsZero())
}
