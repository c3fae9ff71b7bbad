package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record represents a normalized feed entry with arbitrary fields.
// The Adapter defines the concrete type and provides a way to extract
// the pieces the engine needs.
type Record any

// Adapter provides record-specific logic for the engine.
// The engine never inspects records directly; everything it needs
// (identity, price, change detection) goes through the adapter.
type Adapter interface {
	// Name returns the unique name of this adapter (e.g., "vehicle").
	Name() string

	// Key returns the stable partner-side identifier (externalId) of a record.
	Key(rec Record) string

	// Price returns the price the platform should advertise for the record.
	Price(rec Record) decimal.Decimal

	// Fingerprint returns a stable digest of all non-price fields.
	// Two records with the same fingerprint need no field update.
	Fingerprint(rec Record) string

	// Line returns the source line number for error attribution.
	Line(rec Record) int
}

// OpType represents the kind of catalog operation.
type OpType string

const (
	// OpCreate publishes a new catalog entry.
	OpCreate OpType = "create"
	// OpUpdateFields updates the non-price fields of an existing entry.
	OpUpdateFields OpType = "update_fields"
	// OpUpdatePrice changes the price of an existing entry.
	OpUpdatePrice OpType = "update_price"
	// OpClose deactivates an entry that disappeared from the feed.
	OpClose OpType = "close"
)

// Reason explains why an operation was planned. Downstream consumers may
// apply different business rules per reason (e.g. flagging discounts).
type Reason string

const (
	ReasonNewVehicle      Reason = "newVehicle"
	ReasonFieldsChanged   Reason = "fieldsChanged"
	ReasonPriceDecreased  Reason = "priceDecreased"
	ReasonPriceIncreased  Reason = "priceIncreased"
	ReasonMissingFromFeed Reason = "missingFromFeed"
)

// Operation is a planned catalog action. Operations are immutable value
// objects produced by BuildPlan and consumed exactly once by the Executor.
type Operation struct {
	// Type specifies the action to perform.
	Type OpType `json:"type"`

	// Key is the externalId the operation targets.
	Key string `json:"key"`

	// RemoteID is the platform-side identifier. Empty for creates.
	RemoteID string `json:"remote_id,omitempty"`

	// Record is the feed record backing the operation. Nil for closes.
	Record Record `json:"-"`

	// Price carries the new price for update_price operations.
	Price decimal.Decimal `json:"price,omitempty"`

	// Reason explains why this operation is needed.
	Reason Reason `json:"reason"`

	// Seq is the position in the plan. It restores deterministic report
	// order after concurrent execution.
	Seq int `json:"seq"`
}

// Options controls which operation classes BuildPlan may emit.
type Options struct {
	// CloseMissing enables Close operations for known ids absent from the feed.
	CloseMissing bool

	// UpdatePrices enables UpdatePrice operations for changed prices.
	UpdatePrices bool
}

// Warning is a non-fatal diagnostic tied to a feed entry or store write.
type Warning struct {
	// Line is the source line number, zero when not row-related.
	Line int `json:"line,omitempty"`

	// Key is the externalId the warning concerns.
	Key string `json:"key,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

// RowError is a parse or validation error reported by the feed loader.
// The engine surfaces these untouched in the final report.
type RowError struct {
	// Line is the 1-based line number in the source file (header is line 1).
	Line int `json:"line"`

	// Key is the externalId if it could be read from the broken row.
	Key string `json:"key,omitempty"`

	// Message describes the parse failure.
	Message string `json:"message"`
}

// Plan is the ordered operation sequence produced by reconciliation.
type Plan struct {
	// Operations is ordered Create -> Update -> Close.
	Operations []Operation `json:"operations"`

	// Warnings contains duplicate-entry diagnostics gathered during planning.
	Warnings []Warning `json:"warnings"`

	// Summary provides aggregate counts per operation class.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	Creates      int `json:"creates"`
	FieldUpdates int `json:"field_updates"`
	PriceUpdates int `json:"price_updates"`
	Closes       int `json:"closes"`
}

// Mapping is the persistent identity record for one vehicle.
type Mapping struct {
	// ExternalID is the stable partner identifier (VIN).
	ExternalID string `json:"external_id"`

	// RemoteID is the platform-side record id.
	RemoteID string `json:"remote_id"`

	// LastKnownPrice is the price last pushed to the platform.
	LastKnownPrice decimal.Decimal `json:"last_known_price"`

	// Fingerprint is the digest of the non-price fields last pushed.
	Fingerprint string `json:"fingerprint"`

	// LastSyncedAt is when the mapping was last written.
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Store is the durable externalId -> remoteId mapping consulted during
// planning and updated during execution. BuildPlan only reads it; the
// Executor is the sole writer.
type Store interface {
	// Lookup returns the mapping for an externalId, or nil when absent.
	Lookup(ctx context.Context, externalID string) (*Mapping, error)

	// Record upserts a mapping. The write must be durably flushed before
	// the call returns.
	Record(ctx context.Context, m Mapping) error

	// Remove deletes a mapping after a confirmed close. Absence of the
	// key is not an error.
	Remove(ctx context.Context, externalID string) error

	// KnownExternalIDs returns every mapped externalId, used to compute
	// missing-from-feed candidates.
	KnownExternalIDs(ctx context.Context) ([]string, error)
}

// Mutator executes catalog operations against the remote platform.
// Implementations classify their errors as transient or permanent,
// see IsTransient.
type Mutator interface {
	// Create publishes a record and returns the platform-assigned id.
	Create(ctx context.Context, rec Record) (remoteID string, err error)

	// UpdateFields replaces the catalog fields of an existing entry.
	UpdateFields(ctx context.Context, remoteID string, rec Record) error

	// UpdatePrice changes the advertised price. decreased signals the
	// platform to apply its discount handling.
	UpdatePrice(ctx context.Context, remoteID string, price decimal.Decimal, decreased bool) error

	// Close deactivates an entry.
	Close(ctx context.Context, remoteID string) error
}
