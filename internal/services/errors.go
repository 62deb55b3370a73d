package services

import (
	"errors"
	"fmt"
)

// Rejections happen before any side effect; sentinel errors are enough
// for callers to map them onto wire error events.
var (
	ErrMissingField     = errors.New("missing required field")
	ErrUnknownSender    = errors.New("unknown sender")
	ErrUnknownRoom      = errors.New("unknown chatroom")
	ErrNoAdminAvailable = errors.New("no admin available")
	ErrForbidden        = errors.New("not a participant of this chatroom")
)

// EnrichmentError reports a post-insert read failure: the message is
// durably stored under MessageID but was not delivered live. Clients
// recover it through a history fetch.
type EnrichmentError struct {
	MessageID int64
	Err       error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("message %d stored but enrichment failed: %v", e.MessageID, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}
