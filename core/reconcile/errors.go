package reconcile

import (
	"errors"
	"fmt"
)

// transienter is implemented by errors that may succeed on retry
// (timeouts, rate limits, 5xx responses).
type transienter interface {
	Transient() bool
}

// IsTransient reports whether err belongs to the retryable failure class.
// Errors that do not implement the Transient classification are treated
// as permanent.
func IsTransient(err error) bool {
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

// TransientError wraps an arbitrary error to mark it retryable.
// Gateways use it for network-level failures that carry no status code.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string   { return e.Err.Error() }
func (e *TransientError) Unwrap() error   { return e.Err }
func (e *TransientError) Transient() bool { return true }

// PlanError is a fatal planning failure: the store could not be consulted
// or the plan could not be constructed. No remote call has been made when
// a PlanError is returned.
type PlanError struct {
	Stage string
	Err   error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan %s: %v", e.Stage, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }
