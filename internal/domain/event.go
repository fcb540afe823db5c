package domain

import "time"

type EventType string

const (
	EventTypeEntry EventType = "entry"
	EventTypeExit  EventType = "exit"
)

// DefaultZoneID is recorded when a gate does not report its zone.
const DefaultZoneID = "default"

// Event is an immutable entry/exit record in the event log.
type Event struct {
	ID           string
	Type         EventType
	LicensePlate string
	ZoneID       string
	Timestamp    time.Time
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventTypeEntry || t == EventTypeExit
}
