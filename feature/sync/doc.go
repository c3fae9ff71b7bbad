// Package sync wires the synchronization engine to the real world.
//
// It owns the run lifecycle: load a vehicle feed, build the operation plan
// against the identity store, execute it through the platform gateway, and
// archive both the raw feed and the resulting report. The package exposes
// the same pipeline twice, to the CLI (cmd/sync) and to the HTTP upload
// endpoint (Handler).
//
// The Gateway adapts the catalog API client to the engine's Mutator
// interface; Verify cross-checks the identity store against the platform's
// own listing state to detect drift between the two.
package sync
