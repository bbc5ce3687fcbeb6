// Package outbox implements the durable, tenant-scoped FIFO queue of
// not-yet-acknowledged local mutations.
//
// Items are keyed by ULID, so the primary-key order is the enqueue order
// and draining oldest-first is a plain ordered scan. Delivery to the
// remote side is at-least-once; remote operations are idempotent by
// entity id.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/store"
	"github.com/ledgerkeep/ledgerkeep/internal/wire"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func newItemID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Item is one queued mutation.
type Item struct {
	ID           string
	TenantID     string
	UserID       string
	EntityType   domain.EntityType
	EntityID     string
	Operation    domain.Operation
	Payload      map[string]any
	PayloadHash  string
	EnqueuedAt   time.Time
	AttemptCount int
	LastError    string
}

// Queue owns the sync_queue table. No other component touches it.
type Queue struct {
	db *sql.DB
}

// New wires the queue over the durable store's handle.
func New(st *store.Store) *Queue {
	return &Queue{db: st.DB()}
}

// Enqueue appends a mutation, applying the supersede rules first:
//
//   - A delete prunes every still-pending create/update for the same
//     entity. If a create was pruned, the remote has never seen the
//     entity and the delete itself is dropped.
//   - A create/update whose payload hash equals an already-pending item
//     for the same entity is dropped; the queued item already carries
//     this content.
//
// Reports whether the item was actually queued.
func (q *Queue) Enqueue(ctx context.Context, item Item) (Item, bool, error) {
	hash, err := wire.PayloadHash(string(item.EntityType), item.EntityID, item.Payload)
	if err != nil {
		return Item{}, false, fmt.Errorf("enqueue: %w", err)
	}
	item.PayloadHash = hash

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, false, fmt.Errorf("enqueue: %w", err)
	}
	defer tx.Rollback()

	if item.Operation == domain.OpDelete {
		prunedCreate, err := pruneForDelete(ctx, tx, item)
		if err != nil {
			return Item{}, false, err
		}
		if prunedCreate {
			// Entity never reached the remote store; nothing to sync.
			if err := tx.Commit(); err != nil {
				return Item{}, false, fmt.Errorf("enqueue: %w", err)
			}
			return Item{}, false, nil
		}
	} else {
		dup, err := hasPendingHash(ctx, tx, item)
		if err != nil {
			return Item{}, false, err
		}
		if dup {
			if err := tx.Commit(); err != nil {
				return Item{}, false, fmt.Errorf("enqueue: %w", err)
			}
			return Item{}, false, nil
		}
	}

	item.ID = newItemID()
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now().UTC()
	}
	payloadJSON, err := json.Marshal(item.Payload)
	if err != nil {
		return Item{}, false, fmt.Errorf("enqueue: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_queue
		(id, tenant_id, user_id, entity_type, entity_id, operation, payload, payload_hash, enqueued_at, attempt_count, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '')
	`,
		item.ID,
		item.TenantID,
		item.UserID,
		string(item.EntityType),
		item.EntityID,
		string(item.Operation),
		string(payloadJSON),
		item.PayloadHash,
		item.EnqueuedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Item{}, false, fmt.Errorf("enqueue: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Item{}, false, fmt.Errorf("enqueue: %w", err)
	}
	return item, true, nil
}

// pruneForDelete removes pending create/update items for the entity and
// reports whether a create was among them.
func pruneForDelete(ctx context.Context, tx *sql.Tx, item Item) (bool, error) {
	var creates int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_queue
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ? AND operation = ?
	`, item.TenantID, string(item.EntityType), item.EntityID, string(domain.OpCreate)).Scan(&creates)
	if err != nil {
		return false, fmt.Errorf("prune for delete: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM sync_queue
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ? AND operation != ?
	`, item.TenantID, string(item.EntityType), item.EntityID, string(domain.OpDelete))
	if err != nil {
		return false, fmt.Errorf("prune for delete: %w", err)
	}
	return creates > 0, nil
}

func hasPendingHash(ctx context.Context, tx *sql.Tx, item Item) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_queue
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ? AND payload_hash = ?
	`, item.TenantID, string(item.EntityType), item.EntityID, item.PayloadHash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("pending hash lookup: %w", err)
	}
	return n > 0, nil
}

// Pending returns the tenant's queued items oldest-first.
func (q *Queue) Pending(ctx context.Context, tenantID string) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, tenant_id, user_id, entity_type, entity_id, operation, payload, payload_hash, enqueued_at, attempt_count, last_error
		FROM sync_queue
		WHERE tenant_id = ?
		ORDER BY id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(rows *sql.Rows) (Item, error) {
	var (
		item        Item
		entityType  string
		operation   string
		payloadJSON string
		enqueuedAt  string
	)
	err := rows.Scan(
		&item.ID, &item.TenantID, &item.UserID,
		&entityType, &item.EntityID, &operation,
		&payloadJSON, &item.PayloadHash, &enqueuedAt,
		&item.AttemptCount, &item.LastError,
	)
	if err != nil {
		return Item{}, fmt.Errorf("scan item: %w", err)
	}
	item.EntityType = domain.EntityType(entityType)
	item.Operation = domain.Operation(operation)
	if payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &item.Payload); err != nil {
			return Item{}, fmt.Errorf("scan item payload: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, enqueuedAt); err == nil {
		item.EnqueuedAt = t
	}
	return item, nil
}

// Remove deletes an acknowledged item.
func (q *Queue) Remove(ctx context.Context, id string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// RemoveByEntity prunes every pending item for an entity and returns how
// many rows went away.
func (q *Queue) RemoveByEntity(ctx context.Context, tenantID string, entityType domain.EntityType, entityID string) (int, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM sync_queue
		WHERE tenant_id = ? AND entity_type = ? AND entity_id = ?
	`, tenantID, string(entityType), entityID)
	if err != nil {
		return 0, fmt.Errorf("remove by entity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove by entity: %w", err)
	}
	return int(n), nil
}

// MarkAttempt records a failed delivery attempt, leaving the item in
// place for the next replay cycle.
func (q *Queue) MarkAttempt(ctx context.Context, id, lastError string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE sync_queue
		SET attempt_count = attempt_count + 1, last_error = ?
		WHERE id = ?
	`, lastError, id)
	if err != nil {
		return fmt.Errorf("mark attempt: %w", err)
	}
	return nil
}

// Count reports the tenant's pending item count.
func (q *Queue) Count(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_queue WHERE tenant_id = ?
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
