// Package event defines the domain events emitted by mutations and the
// dispatcher that fans them out to subscribers. Mutations return their events
// explicitly; the transport layer decides when to dispatch them, so side
// effects stay visible and testable.
package event

import "time"

// Kind identifies a domain event type.
type Kind string

const (
	DocumentCreated      Kind = "document.created"
	DocumentUpdated      Kind = "document.updated"
	DocumentDeleted      Kind = "document.deleted"
	DocumentMoved        Kind = "document.moved"
	DocumentTagged       Kind = "document.tagged"
	DocumentUntagged     Kind = "document.untagged"
	DocumentOCRCompleted Kind = "document.ocr_completed"
	DocumentReconciled   Kind = "document.reconciled"
)

// Event records one domain-level change to an entity.
type Event struct {
	Kind       Kind           `json:"kind"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Meta carries per-request metadata attached at dispatch time.
type Meta struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// New builds an event for a document entity.
func New(kind Kind, documentID, actor string, payload map[string]any) Event {
	return Event{
		Kind:       kind,
		EntityType: "document",
		EntityID:   documentID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
