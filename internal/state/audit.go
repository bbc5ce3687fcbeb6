package state

import "time"

// maxErrorLog bounds the error log to the most recent entries.
const maxErrorLog = 50

// SystemActor marks audit entries produced by a business workflow rather
// than a user.
const SystemActor = "system"

// AuditEntry records one applied (or rejected) action.
type AuditEntry struct {
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    string    `json:"entity_id,omitempty"`
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
}

// recordAudit prepends an entry to the transaction log (newest first).
func (s *State) recordAudit(e AuditEntry) {
	s.TxLog = append([]AuditEntry{e}, s.TxLog...)
}

// recordError prepends an entry to the capped error log.
func (s *State) recordError(e AuditEntry) {
	s.ErrorLog = append([]AuditEntry{e}, s.ErrorLog...)
	if len(s.ErrorLog) > maxErrorLog {
		s.ErrorLog = s.ErrorLog[:maxErrorLog]
	}
}
