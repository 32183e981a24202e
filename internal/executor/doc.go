// Package executor implements a batch-friendly GraphQL executor built around
// suspension placeholders and drain rounds.
//
// # Execution Model
//
// The executor walks the selection set depth-first, but a field resolver may
// return a deferred value instead of a concrete one:
//
//   - *loader.Pending — a memoized slot issued by the walk's batch loader.
//   - resolver.Thunk — a continuation to invoke after the next batch round.
//
// Encountering a deferred value suspends that branch: a placeholder is left
// in the response tree and the suspension is queued. Everything immediately
// available keeps resolving, so by the time the frontier is exhausted, every
// key needed by the current depth has been requested.
//
// The drain loop then runs one batch round: loader.Run fires each group's
// batch function exactly once over its accumulated keys, after which each
// suspension is resumed and its subtree expanded. Resumption can suspend
// again deeper down, which queues work for the following round. For a query
// whose deepest chain of deferred fields has length d, exactly d rounds run.
//
// # Errors and Non-Null Propagation
//
// Errors are accumulated as located GraphQL errors (message, path, source
// positions) while siblings keep resolving. A null or error under a Non-Null
// field propagates null to the nearest nullable ancestor; the nullified
// subtree is tombstoned so suspensions parked beneath it are dropped on
// resumption instead of writing into a dead branch.
//
// # Runtime Contract
//
// The Runtime interface abstracts host integration: ResolveField for field
// values (possibly deferred), ResolveType for abstract types, SerializeLeaf
// for scalars and enums. resolver.Strategy is the standard implementation.
package executor
