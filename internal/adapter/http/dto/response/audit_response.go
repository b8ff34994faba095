package response

import (
	"time"

	"mojster_trust/internal/domain/entities"
)

type AuditEntryResponse struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Seq        int64             `json:"seq"`
	FromStatus string            `json:"from_status,omitempty"`
	ToStatus   string            `json:"to_status"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorRole  string            `json:"actor_role,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func FromAuditEntries(entries []entities.AuditLogEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Seq:        e.Seq,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActorID:    e.ActorID,
			ActorRole:  e.ActorRole,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
