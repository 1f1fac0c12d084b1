package events

// EventTypes maps event types to constructors for decoding serialized events.
var EventTypes = map[EventType]func() Event{
	EventTypePledgePaid:     func() Event { return &PledgePaid{} },
	EventTypePledgeCaptured: func() Event { return &PledgeCaptured{} },
	EventTypePledgeVoided:   func() Event { return &PledgeVoided{} },
}
