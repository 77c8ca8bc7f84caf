package producer

import "errors"

var (
	// ErrNoClient is returned to worker units when no producer client is published.
	ErrNoClient = errors.New("kafka producer client is not initialized")

	// ErrNotRunning is returned by Stop when no client is published.
	ErrNotRunning = errors.New("kafka producer client is not running")

	// ErrClientClosed is returned when a client is used after teardown began.
	ErrClientClosed = errors.New("kafka producer client is closed")

	// ErrFlushIncomplete is returned when messages are still in flight after the flush timeout.
	ErrFlushIncomplete = errors.New("kafka producer flush incomplete")

	// ErrUnknownSerializer is returned for serialization schemes with no Go implementation.
	ErrUnknownSerializer = errors.New("unknown serializer")
)
