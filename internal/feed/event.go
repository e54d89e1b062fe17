package feed

import (
	"encoding/json"
	"time"
)

// EventType is the kind of row change carried by a ChangeEvent.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// ParseEventType maps an outbox op onto an EventType.
func ParseEventType(op string) (EventType, bool) {
	switch EventType(op) {
	case Insert, Update, Delete:
		return EventType(op), true
	}
	return "", false
}

// ChangeEvent describes one row change on a table. New is set for INSERT and
// UPDATE, Old for UPDATE and DELETE. Both hold the base row only, never joined
// fields. Seq is the outbox id for events read from Postgres, zero otherwise.
type ChangeEvent struct {
	Seq       int64           `json:"seq,omitempty"`
	Type      EventType       `json:"eventType"`
	Table     string          `json:"table"`
	New       json.RawMessage `json:"new,omitempty"`
	Old       json.RawMessage `json:"old,omitempty"`
	Committed time.Time       `json:"commit_timestamp"`
}

// Handler receives change events for one table.
type Handler func(ChangeEvent)
