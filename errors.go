package webpubsub

import (
	"errors"
	"fmt"
)

var (
	// The operation has no meaning with a Web PubSub backed adapter.
	ErrNotSupported = errors.New("webpubsub: not supported")

	// The operation is planned but not implemented yet.
	ErrNotImplemented = errors.New("webpubsub: not implemented: this feature will be available in a further version")

	// Enumerating sockets of other instances is not implemented.
	// Set the local flag to query this instance only.
	ErrNonLocalNotSupported = errors.New("webpubsub: non-local condition is not supported")
)

// ServiceError is a terminal (non-retried) response from the Web PubSub service.
type ServiceError struct {
	StatusCode int
	RequestID  string
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("webpubsub: service returned %d (request id: %s): %s", e.StatusCode, e.RequestID, e.Body)
}
