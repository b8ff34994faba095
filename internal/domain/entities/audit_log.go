package entities

import "time"

// AuditLogEntry is an append-only record of one state change or money
// movement attempt. Entries are never updated or deleted; Seq is a monotonic
// per-entity sequence assigned at insertion, so ordering does not depend on
// wall clocks.

type AuditLogEntry struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Seq        int64             `json:"seq"`
	FromStatus string            `json:"from_status"`
	ToStatus   string            `json:"to_status"`
	ActorID    string            `json:"actor_id"`
	ActorRole  string            `json:"actor_role"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
