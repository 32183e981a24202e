package events

import "time"

// BatchRound is emitted after each batch-function invocation, one per group
// per drain round.
type BatchRound struct {
	Group    string
	KeyCount int
	Err      error
	Duration time.Duration
}
