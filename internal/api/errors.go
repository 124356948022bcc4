package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies API failures for policy decisions upstream:
// background pollers log and retry, foreground actions surface a
// recoverable state, unauthorized is delegated to the auth layer.
type ErrorKind string

const (
	// KindNetwork means the request never produced an HTTP response.
	KindNetwork ErrorKind = "network"

	// KindUnauthorized means the server rejected the credential (401).
	// Handled by the auth collaborator, never inside the messenger.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindNotFound means the entity vanished server-side (404). Treated
	// as stale state; the store entry is removed.
	KindNotFound ErrorKind = "not_found"

	// KindRejected means the server refused the payload (4xx other than
	// 401/404).
	KindRejected ErrorKind = "rejected"

	// KindServer means a 5xx response.
	KindServer ErrorKind = "server"
)

// Error is the typed failure returned by every Client method.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (%s)", e.Message, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("api: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the error kind, or "" for non-API errors.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a 404-classified API error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsUnauthorized reports whether err is a 401-classified API error.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
