package events

import "time"

// HTTPStart is emitted when a GraphQL HTTP request is received. RequestID is
// the id the handler generated for the request; subscribers use it to
// correlate with the operation and loader events of the same walk.
type HTTPStart struct {
	RequestID string
	Method    string
	Path      string
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	RequestID string
	Method    string
	Path      string
	Status    int
	Duration  time.Duration
}
