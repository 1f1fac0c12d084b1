// Package session defines storage for payment sessions, the short-lived
// records binding a checkout attempt to a pledge intent.
package session

import (
	"context"
	"errors"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
)

// ErrNotFound is returned when a session id does not resolve to a live session.
var ErrNotFound = errors.New("payment session not found")

// Store holds payment sessions until a transaction is created from them.
type Store interface {
	// Get returns the live session with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*pledge.PaymentSession, error)
	// Save stores s, assigning an id and creation time when missing.
	Save(ctx context.Context, s *pledge.PaymentSession) error
	// Delete consumes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
