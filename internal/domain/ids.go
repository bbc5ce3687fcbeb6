package domain

import "github.com/google/uuid"

// NewID returns a time-sortable UUIDv7 for a locally created record.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids created
// on one device sort by creation time. Remote-created records keep
// whatever id the remote assigned.
//
// Panics if UUID generation fails (should never happen in practice).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
