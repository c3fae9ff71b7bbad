// Package identity persists the mapping between partner VINs and the
// platform's internal vehicle ids.
//
// The mapping is what makes repeated synchronization runs safe: a VIN that
// is already mapped is updated instead of re-created, and a VIN that
// disappears from the feed can be closed by its known remote id. Mappings
// are created on the first successful create, refreshed on every successful
// update or price change, and removed only after a confirmed close.
//
// Two implementations exist: GormStore, the durable MySQL-backed store used
// in production (every write is its own committed statement), and
// MemoryStore for tests and dry runs.
package identity
