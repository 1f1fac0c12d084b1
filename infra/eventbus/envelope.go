package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func buildEnvelope(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: payload})
}

// DecodeEnvelope restores the concrete event stored in raw.
func DecodeEnvelope(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := events.EventTypes[events.EventType(env.Type)]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return evt, nil
}
