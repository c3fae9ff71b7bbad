package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor runs operation plans against a Mutator, applying the retry and
// ordering policy and keeping the identity store in step with the remote
// catalog. One Executor may run many plans; each Execute call is isolated.
type Executor struct {
	adapter Adapter
	store   Store
	mutator Mutator
	cfg     Config
	logger  *zap.Logger
}

// NewExecutor creates an executor. The logger may not be nil; pass
// zap.NewNop() in tests.
func NewExecutor(adapter Adapter, store Store, mutator Mutator, cfg Config, logger *zap.Logger) *Executor {
	return &Executor{
		adapter: adapter,
		store:   store,
		mutator: mutator,
		cfg:     cfg.normalized(),
		logger:  logger,
	}
}

// Execute runs every operation of the plan to a terminal state and returns
// the report. It never returns early because of operation failures; one
// vehicle's failure must not abort the run.
//
// Ordering guarantees:
//   - all create/update operations reach a terminal state before any close
//     is dispatched;
//   - operations on the same externalId run sequentially, in plan order;
//   - operations on different ids may run concurrently, bounded by
//     Config.Concurrency.
//
// Cancelling ctx stops dispatching new operations; in-flight calls finish
// to a terminal state so the store never reflects a half-applied call.
// Undispatched operations are reported as skipped.
func (e *Executor) Execute(ctx context.Context, plan *Plan) *Report {
	run := &execution{Executor: e, outcomes: make([]Outcome, len(plan.Operations))}

	var mutations, closes []Operation
	for _, op := range plan.Operations {
		if op.Type == OpClose {
			closes = append(closes, op)
		} else {
			mutations = append(mutations, op)
		}
	}

	// Phase barrier: a close must never race the creation of its
	// replacement, so closes wait for the whole first phase.
	run.runPhase(ctx, mutations)
	run.runPhase(ctx, closes)

	report := &Report{
		Plan:     plan.Summary,
		Outcomes: run.outcomes,
		Warnings: append(append([]Warning(nil), plan.Warnings...), run.warnings...),
	}
	report.tally()
	return report
}

// execution holds the mutable state of one Execute call.
type execution struct {
	*Executor

	outcomes []Outcome

	mu       sync.Mutex
	warnings []Warning
}

// runPhase executes one ordering phase. Operations are grouped into per-id
// chains; chains run concurrently, the operations inside a chain do not.
func (x *execution) runPhase(ctx context.Context, ops []Operation) {
	if len(ops) == 0 {
		return
	}

	chains := chainByKey(ops)

	g := new(errgroup.Group)
	g.SetLimit(x.cfg.Concurrency)

	for _, chain := range chains {
		if ctx.Err() != nil {
			x.skipChain(chain, ctx.Err())
			continue
		}
		g.Go(func() error {
			for i, op := range chain {
				if ctx.Err() != nil {
					x.skipChain(chain[i:], ctx.Err())
					return nil
				}
				x.outcomes[op.Seq] = x.runOp(ctx, op)
			}
			return nil
		})
	}

	// Workers only return nil; Wait is just the phase barrier.
	_ = g.Wait()
}

// chainByKey groups operations by externalId, preserving plan order both
// across chains (by first operation) and inside each chain.
func chainByKey(ops []Operation) [][]Operation {
	index := make(map[string]int)
	var chains [][]Operation
	for _, op := range ops {
		i, ok := index[op.Key]
		if !ok {
			i = len(chains)
			index[op.Key] = i
			chains = append(chains, nil)
		}
		chains[i] = append(chains[i], op)
	}
	return chains
}

func (x *execution) skipChain(ops []Operation, cause error) {
	for _, op := range ops {
		x.outcomes[op.Seq] = Outcome{
			Operation: op,
			Status:    StatusSkipped,
			Error:     fmt.Sprintf("not dispatched: %v", cause),
		}
	}
}

// runOp drives a single operation through its state machine:
// Pending -> Attempting -> {Succeeded | Retrying -> Attempting |
// FailedPermanent | FailedExhausted}.
func (x *execution) runOp(ctx context.Context, op Operation) Outcome {
	out := Outcome{Operation: op}

	for attempt := 1; ; attempt++ {
		out.Attempts = attempt

		err := x.apply(ctx, op)
		if err == nil {
			out.Status = StatusSucceeded
			x.logger.Debug("operation succeeded",
				zap.String("op", string(op.Type)),
				zap.String("key", op.Key),
				zap.Int("attempt", attempt),
			)
			return out
		}

		if !IsTransient(err) {
			out.Status = StatusFailedPermanent
			out.Error = err.Error()
			x.logger.Warn("operation rejected",
				zap.String("op", string(op.Type)),
				zap.String("key", op.Key),
				zap.Error(err),
			)
			return out
		}

		if attempt >= x.cfg.MaxAttempts {
			out.Status = StatusFailedExhausted
			out.Error = err.Error()
			x.logger.Warn("operation retries exhausted",
				zap.String("op", string(op.Type)),
				zap.String("key", op.Key),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return out
		}

		delay := backoffDelay(attempt, x.cfg.BackoffBase(), x.cfg.BackoffMax())
		x.logger.Debug("operation retrying",
			zap.String("op", string(op.Type)),
			zap.String("key", op.Key),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			out.Status = StatusFailedExhausted
			out.Error = fmt.Sprintf("retry aborted: %v (last error: %v)", ctx.Err(), err)
			return out
		}
	}
}

// apply issues the gateway call and, on success, the matching store write.
// The gateway call runs on a non-cancellable context: once dispatched, an
// operation finishes to a terminal state even if the run is aborted.
func (x *execution) apply(ctx context.Context, op Operation) error {
	callCtx := context.WithoutCancel(ctx)

	switch op.Type {
	case OpCreate:
		remoteID, err := x.mutator.Create(callCtx, op.Record)
		if err != nil {
			return err
		}
		x.writeMapping(callCtx, Mapping{
			ExternalID:     op.Key,
			RemoteID:       remoteID,
			LastKnownPrice: x.adapter.Price(op.Record),
			Fingerprint:    x.adapter.Fingerprint(op.Record),
			LastSyncedAt:   time.Now().UTC(),
		})

	case OpUpdateFields:
		if err := x.mutator.UpdateFields(callCtx, op.RemoteID, op.Record); err != nil {
			return err
		}
		x.refreshMapping(callCtx, op, func(m *Mapping) {
			m.Fingerprint = x.adapter.Fingerprint(op.Record)
		})

	case OpUpdatePrice:
		decreased := op.Reason == ReasonPriceDecreased
		if err := x.mutator.UpdatePrice(callCtx, op.RemoteID, op.Price, decreased); err != nil {
			return err
		}
		x.refreshMapping(callCtx, op, func(m *Mapping) {
			m.LastKnownPrice = op.Price
		})

	case OpClose:
		if err := x.mutator.Close(callCtx, op.RemoteID); err != nil {
			return err
		}
		if err := x.store.Remove(callCtx, op.Key); err != nil {
			x.storeWarning(op.Key, fmt.Errorf("remove mapping: %w", err))
		}

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}

	return nil
}

// writeMapping persists a mapping. A failed write does not fail the
// operation (the remote call already happened); it is escalated as a run
// warning because the store and the catalog are now possibly divergent.
func (x *execution) writeMapping(ctx context.Context, m Mapping) {
	if err := x.store.Record(ctx, m); err != nil {
		x.storeWarning(m.ExternalID, fmt.Errorf("record mapping: %w", err))
	}
}

// refreshMapping applies a partial change on top of the current mapping.
// Same-id operations are serialized by the chain, so read-modify-write is
// safe here.
func (x *execution) refreshMapping(ctx context.Context, op Operation, change func(*Mapping)) {
	m, err := x.store.Lookup(ctx, op.Key)
	if err != nil {
		x.storeWarning(op.Key, fmt.Errorf("lookup mapping: %w", err))
		return
	}
	if m == nil {
		// Mapping vanished under us; rebuild what we know from the plan.
		m = &Mapping{
			ExternalID:     op.Key,
			RemoteID:       op.RemoteID,
			LastKnownPrice: x.adapter.Price(op.Record),
			Fingerprint:    x.adapter.Fingerprint(op.Record),
		}
	}
	change(m)
	m.LastSyncedAt = time.Now().UTC()
	x.writeMapping(ctx, *m)
}

func (x *execution) storeWarning(key string, err error) {
	x.logger.Error("identity store write failed; local state may diverge from catalog",
		zap.String("key", key),
		zap.Error(err),
	)
	x.mu.Lock()
	x.warnings = append(x.warnings, Warning{Key: key, Message: err.Error()})
	x.mu.Unlock()
}
