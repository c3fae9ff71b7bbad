package identity

import (
	"fmt"
	"time"

	"fleet-sync/core/reconcile"

	"github.com/shopspring/decimal"
)

// Store is implemented by both backends. It is the engine's reconcile.Store
// contract; the alias keeps call sites inside the feature readable.
type Store = reconcile.Store

// WriteError signals that a mapping write could not be persisted. The
// in-memory and on-disk states are possibly divergent once this happens;
// callers log loudly rather than silently continue.
type WriteError struct {
	ExternalID string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("identity store write for %s: %v", e.ExternalID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// mappingRow is the database shape of a reconcile.Mapping.
type mappingRow struct {
	ExternalID     string          `gorm:"column:external_id;primaryKey;size:64"`
	RemoteID       string          `gorm:"column:remote_id;size:64;not null"`
	LastKnownPrice decimal.Decimal `gorm:"column:last_known_price;type:decimal(12,2)"`
	Fingerprint    string          `gorm:"column:fingerprint;size:64"`
	LastSyncedAt   time.Time       `gorm:"column:last_synced_at"`
}

func (mappingRow) TableName() string { return "identity_mappings" }

func (r mappingRow) mapping() reconcile.Mapping {
	return reconcile.Mapping{
		ExternalID:     r.ExternalID,
		RemoteID:       r.RemoteID,
		LastKnownPrice: r.LastKnownPrice,
		Fingerprint:    r.Fingerprint,
		LastSyncedAt:   r.LastSyncedAt,
	}
}

func rowFromMapping(m reconcile.Mapping) mappingRow {
	return mappingRow{
		ExternalID:     m.ExternalID,
		RemoteID:       m.RemoteID,
		LastKnownPrice: m.LastKnownPrice,
		Fingerprint:    m.Fingerprint,
		LastSyncedAt:   m.LastSyncedAt,
	}
}
