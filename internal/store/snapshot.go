package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// ErrNoSnapshot is returned when no snapshot exists for a tenant.
var ErrNoSnapshot = errors.New("no snapshot for tenant")

// Save upserts the tenant's aggregate-state snapshot. Called by the
// engine after every applied action, so the write path stays cheap: one
// row replace per tenant.
func (s *Store) Save(ctx context.Context, st *state.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO state_snapshots (tenant_id, data, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			data = excluded.data,
			saved_at = excluded.saved_at
	`, st.TenantID, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads a tenant's snapshot back into a State.
func (s *Store) Load(ctx context.Context, tenantID string) (*state.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM state_snapshots WHERE tenant_id = ?
	`, tenantID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, tenantID)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	st := &state.State{}
	if err := json.Unmarshal([]byte(data), st); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	st.EnsureCollections()
	return st, nil
}
