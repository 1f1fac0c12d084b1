// Package eventbus defines the contract for publishing pledge events.
package eventbus

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
)

// HandlerFunc handles a single event.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus dispatches events to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}
