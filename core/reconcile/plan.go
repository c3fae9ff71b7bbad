package reconcile

import (
	"context"
	"fmt"
	"sort"
)

// BuildPlan computes the diff between the incoming feed and the identity
// store and returns an ordered operation plan. It never calls the remote
// platform. The plan is deterministic: the same feed and store state always
// produce the same operation sequence.
//
// Duplicate externalIds in the feed are not fatal: the last occurrence wins
// and earlier ones are reported as warnings. A store read failure aborts
// planning with a PlanError.
func BuildPlan(ctx context.Context, adapter Adapter, records []Record, store Store, opts Options) (*Plan, error) {
	plan := &Plan{}

	records, warnings := dedupeRecords(adapter, records)
	plan.Warnings = warnings

	var creates, updates []Operation

	for _, rec := range records {
		key := adapter.Key(rec)

		m, err := store.Lookup(ctx, key)
		if err != nil {
			return nil, &PlanError{Stage: "lookup", Err: fmt.Errorf("lookup %s: %w", key, err)}
		}

		if m == nil {
			creates = append(creates, Operation{
				Type:   OpCreate,
				Key:    key,
				Record: rec,
				Reason: ReasonNewVehicle,
			})
			continue
		}

		// Price and field changes are independent operations; a vehicle may
		// yield both, targeting the same remote id.
		if opts.UpdatePrices {
			price := adapter.Price(rec)
			if !price.Equal(m.LastKnownPrice) {
				reason := ReasonPriceIncreased
				if price.LessThan(m.LastKnownPrice) {
					reason = ReasonPriceDecreased
				}
				updates = append(updates, Operation{
					Type:     OpUpdatePrice,
					Key:      key,
					RemoteID: m.RemoteID,
					Record:   rec,
					Price:    price,
					Reason:   reason,
				})
			}
		}

		if adapter.Fingerprint(rec) != m.Fingerprint {
			updates = append(updates, Operation{
				Type:     OpUpdateFields,
				Key:      key,
				RemoteID: m.RemoteID,
				Record:   rec,
				Reason:   ReasonFieldsChanged,
			})
		}
	}

	var closes []Operation
	if opts.CloseMissing {
		var err error
		closes, err = planCloses(ctx, adapter, records, store)
		if err != nil {
			return nil, err
		}
	}

	// Creations must not be blocked by unrelated closes; closing is the
	// most destructive class and goes last.
	plan.Operations = make([]Operation, 0, len(creates)+len(updates)+len(closes))
	plan.Operations = append(plan.Operations, creates...)
	plan.Operations = append(plan.Operations, updates...)
	plan.Operations = append(plan.Operations, closes...)
	for i := range plan.Operations {
		plan.Operations[i].Seq = i
	}

	plan.Summary = summarize(plan.Operations)
	return plan, nil
}

// dedupeRecords keeps the last occurrence per externalId, preserving feed
// order, and reports earlier occurrences as warnings.
func dedupeRecords(adapter Adapter, records []Record) ([]Record, []Warning) {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		last[adapter.Key(rec)] = i
	}

	var warnings []Warning
	deduped := make([]Record, 0, len(last))
	for i, rec := range records {
		key := adapter.Key(rec)
		if last[key] != i {
			conflict := ""
			winner := records[last[key]]
			if adapter.Fingerprint(rec) != adapter.Fingerprint(winner) ||
				!adapter.Price(rec).Equal(adapter.Price(winner)) {
				conflict = " with conflicting data; last occurrence wins"
			}
			warnings = append(warnings, Warning{
				Line:    adapter.Line(rec),
				Key:     key,
				Message: fmt.Sprintf("duplicate feed entry for %s%s", key, conflict),
			})
			continue
		}
		deduped = append(deduped, rec)
	}
	return deduped, warnings
}

// planCloses emits a Close for every mapped externalId not present in the
// (already deduplicated) feed. Candidates are sorted so the plan stays
// deterministic regardless of store iteration order.
func planCloses(ctx context.Context, adapter Adapter, records []Record, store Store) ([]Operation, error) {
	known, err := store.KnownExternalIDs(ctx)
	if err != nil {
		return nil, &PlanError{Stage: "known ids", Err: err}
	}

	inFeed := make(map[string]struct{}, len(records))
	for _, rec := range records {
		inFeed[adapter.Key(rec)] = struct{}{}
	}

	var missing []string
	for _, id := range known {
		if _, ok := inFeed[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)

	closes := make([]Operation, 0, len(missing))
	for _, id := range missing {
		m, err := store.Lookup(ctx, id)
		if err != nil {
			return nil, &PlanError{Stage: "lookup", Err: fmt.Errorf("lookup %s: %w", id, err)}
		}
		if m == nil {
			// Removed between KnownExternalIDs and Lookup; nothing to close.
			continue
		}
		closes = append(closes, Operation{
			Type:     OpClose,
			Key:      id,
			RemoteID: m.RemoteID,
			Reason:   ReasonMissingFromFeed,
		})
	}
	return closes, nil
}

func summarize(ops []Operation) PlanSummary {
	var s PlanSummary
	for _, op := range ops {
		switch op.Type {
		case OpCreate:
			s.Creates++
		case OpUpdateFields:
			s.FieldUpdates++
		case OpUpdatePrice:
			s.PriceUpdates++
		case OpClose:
			s.Closes++
		}
	}
	return s
}
