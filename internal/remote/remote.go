// Package remote defines the boundary to the shared service: per-entity
// save/delete, full snapshot fetch, and the real-time event channel.
//
// Payloads at this boundary are wire-cased JSON objects; the sync engine
// normalizes between wire shape and domain records. The concrete HTTP
// client lives here too; tests and offline tooling use scripted fakes.
package remote

import (
	"context"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Snapshot is the remote's full per-collection payload for one tenant.
type Snapshot map[domain.EntityType][]map[string]any

// Service is the remote mutation surface. All operations are idempotent
// by entity id: the outbox delivers at-least-once.
type Service interface {
	Save(ctx context.Context, tenantID string, entityType domain.EntityType, payload map[string]any) (map[string]any, error)
	Delete(ctx context.Context, tenantID string, entityType domain.EntityType, id string) error
	FetchSnapshot(ctx context.Context, tenantID string) (Snapshot, error)
}

// Event is one real-time notification: an entity another session created,
// updated, or deleted. UserID identifies the originating session for
// self-echo suppression.
type Event struct {
	TenantID   string
	UserID     string
	EntityType domain.EntityType
	Operation  domain.Operation
	Payload    map[string]any // entity in wire shape; deletes carry at least "id"
}

// Channel is a per-tenant real-time subscription. The transport behind it
// (websocket, SSE, message broker) is outside this core.
type Channel interface {
	Events() <-chan Event
	Close() error
}
