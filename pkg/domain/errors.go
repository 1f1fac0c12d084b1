// Package domain holds the sentinel errors shared by every layer. Callers
// wrap them with context and match with errors.Is.
package domain

import "errors"

var (
	// ErrNotFound: no transaction, project, reward or payout with that id.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists reports a unique key collision, typically a txn code.
	ErrAlreadyExists = errors.New("resource already exists")
	ErrValidation    = errors.New("validation error")

	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the caller is authenticated but lacks the operator role.
	ErrForbidden = errors.New("forbidden")

	// ErrConfiguration is returned when a processor credential or client id
	// needed by the operation is not set.
	ErrConfiguration = errors.New("configuration error")
)
