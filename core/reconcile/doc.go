// Package reconcile implements the feed reconciliation and synchronization
// engine.
//
// The engine compares a normalized partner feed against the identity store
// (the durable externalId -> remoteId mapping) and produces an ordered plan
// of catalog operations: Create, UpdateFields, UpdatePrice and Close. The
// plan is deterministic for a given feed and store state, which makes reruns
// idempotent and dry-run previews reproducible.
//
// # Planning
//
// BuildPlan partitions the feed by externalId (last duplicate wins, earlier
// occurrences become warnings), emits Create for unknown ids, UpdatePrice
// and/or UpdateFields for known ids whose price or fingerprint diverged, and
// Close for known ids missing from the feed. Operations are ordered
// Create -> Update -> Close.
//
// # Execution
//
// The Executor runs a plan against a Mutator (the remote catalog gateway)
// with bounded concurrency. Close operations only start after every
// create/update reached a terminal state, and operations targeting the same
// externalId are chained so an id never has two calls in flight. Transient
// gateway errors are retried with capped exponential backoff and jitter;
// permanent errors fail the operation immediately. The identity store is
// updated only after a successful remote call, so a rerun after a partial
// failure picks up exactly the vehicles that did not go through.
//
// The engine is generic over the record type via the Adapter interface, so
// it can be unit tested without the vehicle domain model.
package reconcile
