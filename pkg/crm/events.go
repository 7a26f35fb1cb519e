package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntityAction names what happened to the entities in an EntityEvent.
type EntityAction string

// Entity actions.
const (
	ActionCreated     EntityAction = "created"
	ActionUpdated     EntityAction = "updated"
	ActionDeleted     EntityAction = "deleted"
	ActionBulkUpdated EntityAction = "bulk_updated"
	ActionBulkDeleted EntityAction = "bulk_deleted"
)

// EntityEvent describes a successful write made through a repository.
type EntityEvent struct {
	ID         string         `json:"id"               yaml:"id"`
	Action     EntityAction   `json:"action"           yaml:"action"`
	EntityType string         `json:"entity_type"      yaml:"entity_type"`
	EntityIDs  []string       `json:"entity_ids"       yaml:"entity_ids"`
	Fields     map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"      yaml:"occurred_at"`
}

// NewEntityEvent creates an event with a fresh ID, stamped with the current time.
func NewEntityEvent(action EntityAction, entityType string, ids ...string) *EntityEvent {
	return &EntityEvent{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: entityType,
		EntityIDs:  ids,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher is notified after successful writes. Publishing failures are
// logged and never fail the write itself.
type EventPublisher interface {
	Publish(ctx context.Context, event *EntityEvent) error
}
