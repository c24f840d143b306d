package amqp

import (
	"encoding/json"
	"time"
)

// EventType names a change that happened in the budget store.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventGroupCreated       EventType = "group.created"
	EventGroupUpdated       EventType = "group.updated"
	EventGroupDeleted       EventType = "group.deleted"
	EventCategoryCreated    EventType = "category.created"
	EventCategoryUpdated    EventType = "category.updated"
	EventCategoryDeleted    EventType = "category.deleted"
	EventSettingsUpdated    EventType = "settings.updated"
	EventDataImported       EventType = "data.imported"
)

// ChangeEvent is a lightweight notification. Consumers fetch full rows through the API.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	EntityID  string    `json:"entityId,omitempty"`
	GroupID   string    `json:"groupId,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with the current time.
func NewChangeEvent(t EventType, entityID string) *ChangeEvent {
	return &ChangeEvent{
		Type:      t,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// WithGroup sets the recurrence group and affected row count.
func (e *ChangeEvent) WithGroup(groupID string, count int) *ChangeEvent {
	e.GroupID = groupID
	e.Count = count
	return e
}

// ToJSON converts the message to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON creates an event from JSON bytes
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
