package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	EventTypePledgePaid     EventType = "Pledge.Paid"
	EventTypePledgeCaptured EventType = "Pledge.Captured"
	EventTypePledgeVoided   EventType = "Pledge.Voided"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}
