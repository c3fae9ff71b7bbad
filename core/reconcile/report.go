package reconcile

// Status is the terminal state of an executed operation.
type Status string

const (
	// StatusSucceeded means the remote call went through and the identity
	// store was updated.
	StatusSucceeded Status = "succeeded"
	// StatusFailedPermanent means the platform rejected the operation with
	// a non-retryable error.
	StatusFailedPermanent Status = "failed_permanent"
	// StatusFailedExhausted means every retry attempt hit a transient error.
	StatusFailedExhausted Status = "failed_exhausted"
	// StatusSkipped means the run was cancelled before the operation was
	// dispatched. No remote call was made.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailedPermanent, StatusFailedExhausted, StatusSkipped:
		return true
	default:
		return false
	}
}

// Outcome records how a single operation ended. It carries the originating
// externalId, the operation kind and the error detail, enough for an
// operator to re-run only the failed subset.
type Outcome struct {
	Operation Operation `json:"operation"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
}

// Report is the aggregate result of one synchronization run. It is built
// incrementally during execution and read-only once the run completes.
type Report struct {
	// RunID identifies the run in logs and archived artifacts.
	RunID string `json:"run_id,omitempty"`

	// DryRun is true when the plan was built but not executed.
	DryRun bool `json:"dry_run,omitempty"`

	// Plan summarizes the planned operations.
	Plan PlanSummary `json:"plan"`

	// Planned lists the operations of a dry run. Empty on executed runs,
	// where Outcomes carries the operations instead.
	Planned []Operation `json:"planned,omitempty"`

	Created      int `json:"created"`
	Updated      int `json:"updated"`
	PriceChanged int `json:"price_changed"`
	Closed       int `json:"closed"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`

	// Outcomes is ordered by plan position regardless of execution order.
	Outcomes []Outcome `json:"outcomes"`

	// Warnings aggregates duplicate-entry and store-write diagnostics.
	Warnings []Warning `json:"warnings,omitempty"`

	// ParseErrors are the row-level loader errors, surfaced untouched.
	ParseErrors []RowError `json:"parse_errors,omitempty"`
}

// tally recomputes the counters from the recorded outcomes.
func (r *Report) tally() {
	r.Created, r.Updated, r.PriceChanged, r.Closed, r.Failed, r.Skipped = 0, 0, 0, 0, 0, 0
	for _, out := range r.Outcomes {
		switch out.Status {
		case StatusSucceeded:
			switch out.Operation.Type {
			case OpCreate:
				r.Created++
			case OpUpdateFields:
				r.Updated++
			case OpUpdatePrice:
				r.PriceChanged++
			case OpClose:
				r.Closed++
			}
		case StatusFailedPermanent, StatusFailedExhausted:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// FailedKeys returns the externalIds whose operations did not succeed,
// deduplicated in report order.
func (r *Report) FailedKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, out := range r.Outcomes {
		if out.Status != StatusFailedPermanent && out.Status != StatusFailedExhausted {
			continue
		}
		if _, ok := seen[out.Operation.Key]; ok {
			continue
		}
		seen[out.Operation.Key] = struct{}{}
		keys = append(keys, out.Operation.Key)
	}
	return keys
}
