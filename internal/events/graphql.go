package events

import "time"

// OperationStart is emitted before executing a GraphQL operation.
type OperationStart struct {
	Query         string
	OperationName string
	OperationType string
}

// OperationFinish is emitted after executing a GraphQL operation.
type OperationFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Rounds        int
	Duration      time.Duration
}

// ExecutionError is emitted once for every error collected during a walk,
// before classification rewrites its presentation. This is the engine's
// reporting-sink hook: subscribers see the original error even when the
// client receives a sanitized message.
type ExecutionError struct {
	Err           error
	Path          string
	OperationName string
}
