package core

import "github.com/vovakirdan/locshare/internal/proto"

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventLocation carries one freshly published location.
	EventLocation EventKind = iota
	// EventSnapshot carries every known last location; sent once on register.
	EventSnapshot
)

func (k EventKind) String() string {
	switch k {
	case EventLocation:
		return "location"
	case EventSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	Location  proto.Location
	Locations []proto.Location // For EventSnapshot
}

// Records returns the wire records carried by the event, in send order.
func (e *Event) Records() []proto.Location {
	if e == nil {
		return nil
	}
	if e.Kind == EventSnapshot {
		return e.Locations
	}
	return []proto.Location{e.Location}
}
