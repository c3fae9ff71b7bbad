package sync

import (
	"context"

	"fleet-sync/core/catalog"
	"fleet-sync/core/reconcile"
)

// MappingLister exposes the full identity store contents for the
// cross-check. Both identity store implementations satisfy it.
type MappingLister interface {
	All(ctx context.Context) ([]reconcile.Mapping, error)
}

// Drift is one disagreement between the identity store and the platform.
type Drift struct {
	// ExternalID is the partner-side id of the affected vehicle.
	ExternalID string `json:"external_id"`

	// RemoteID is the platform-side id, when known.
	RemoteID string `json:"remote_id,omitempty"`

	// Detail describes the disagreement.
	Detail string `json:"detail"`
}

// VerifyResult is the outcome of one cross-check.
type VerifyResult struct {
	// Mapped is the number of identity mappings inspected.
	Mapped int `json:"mapped"`

	// RemoteActive is the number of active platform listings.
	RemoteActive int `json:"remote_active"`

	// Stale are mappings whose platform listing is gone or inactive.
	Stale []Drift `json:"stale,omitempty"`

	// PriceDrift are mappings whose last known price differs from the
	// price the platform currently advertises.
	PriceDrift []Drift `json:"price_drift,omitempty"`

	// Untracked are active platform listings no mapping points at.
	Untracked []Drift `json:"untracked,omitempty"`
}

// Clean reports whether the store and the platform agree.
func (r *VerifyResult) Clean() bool {
	return len(r.Stale) == 0 && len(r.PriceDrift) == 0 && len(r.Untracked) == 0
}

// Verify cross-checks the identity store against the platform's listings.
// It is read-only on both sides; fixing drift is an operator decision.
func Verify(ctx context.Context, store MappingLister, client *catalog.Client) (*VerifyResult, error) {
	mappings, err := store.All(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := client.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]catalog.RemoteVehicle, len(remote))
	active := 0
	for _, rv := range remote {
		byID[rv.ID] = rv
		if rv.Active {
			active++
		}
	}

	result := &VerifyResult{Mapped: len(mappings), RemoteActive: active}

	tracked := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		tracked[m.RemoteID] = struct{}{}

		rv, ok := byID[m.RemoteID]
		if !ok || !rv.Active {
			result.Stale = append(result.Stale, Drift{
				ExternalID: m.ExternalID,
				RemoteID:   m.RemoteID,
				Detail:     "platform listing is gone or inactive",
			})
			continue
		}
		if !rv.Pricing.SalesPrice.Equal(m.LastKnownPrice) {
			result.PriceDrift = append(result.PriceDrift, Drift{
				ExternalID: m.ExternalID,
				RemoteID:   m.RemoteID,
				Detail:     "platform price " + rv.Pricing.SalesPrice.String() + " != last known " + m.LastKnownPrice.String(),
			})
		}
	}

	for _, rv := range remote {
		if !rv.Active {
			continue
		}
		if _, ok := tracked[rv.ID]; ok {
			continue
		}
		result.Untracked = append(result.Untracked, Drift{
			ExternalID: rv.ExternalID,
			RemoteID:   rv.ID,
			Detail:     "active platform listing has no identity mapping",
		})
	}

	return result, nil
}
