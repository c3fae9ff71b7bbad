package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGateway is a scripted Mutator. Remote ids are derived from the
// record key ("R-<key>") so tests can address errors per vehicle.
type fakeGateway struct {
	mu        sync.Mutex
	calls     []string
	errs      map[string]error // keyed "op:key", e.g. "create:A", "close:R-C"
	failFirst map[string]int   // fail the first N calls with a transient error

	blockCreate chan struct{} // when set, Create waits until closed
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{errs: make(map[string]error), failFirst: make(map[string]int)}
}

func (g *fakeGateway) record(call string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, call)
	if g.failFirst[call] > 0 {
		g.failFirst[call]--
		return &TransientError{Err: errors.New("timeout")}
	}
	return g.errs[call]
}

func (g *fakeGateway) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Create(_ context.Context, r Record) (string, error) {
	if g.blockCreate != nil {
		<-g.blockCreate
	}
	key := r.(testRec).key
	if err := g.record("create:" + key); err != nil {
		return "", err
	}
	return "R-" + key, nil
}

func (g *fakeGateway) UpdateFields(_ context.Context, remoteID string, r Record) error {
	return g.record("update:" + r.(testRec).key)
}

func (g *fakeGateway) UpdatePrice(_ context.Context, remoteID string, price decimal.Decimal, decreased bool) error {
	return g.record(fmt.Sprintf("price:%s:%s:%v", remoteID, price.String(), decreased))
}

func (g *fakeGateway) Close(_ context.Context, remoteID string) error {
	return g.record("close:" + remoteID)
}

type permanentErr struct{ msg string }

func (e permanentErr) Error() string { return e.msg }

func fastConfig() Config {
	return Config{MaxAttempts: 3, BackoffBaseMS: 0, BackoffMaxMS: 0, Concurrency: 4}
}

func executeFeed(t *testing.T, store *memStore, gw *fakeGateway, cfg Config, feed []Record, opts Options) *Report {
	t.Helper()
	plan, err := BuildPlan(context.Background(), testAdapter{}, feed, store, opts)
	require.NoError(t, err)
	exec := NewExecutor(testAdapter{}, store, gw, cfg, zap.NewNop())
	return exec.Execute(context.Background(), plan)
}

func TestExecute_CreateRecordsMapping(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 100, "fa")), Options{})

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Failed)

	m, err := store.Lookup(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "R-A", m.RemoteID)
	assert.True(t, m.LastKnownPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "fa", m.Fingerprint)
	assert.False(t, m.LastSyncedAt.IsZero())
}

func TestExecute_IdempotentRerun(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	feed := records(rec("A", 100, "fa"), rec("B", 200, "fb"))
	opts := Options{CloseMissing: true, UpdatePrices: true}

	report := executeFeed(t, store, gw, fastConfig(), feed, opts)
	assert.Equal(t, 2, report.Created)

	// Second run with an unchanged feed plans zero operations.
	plan, err := BuildPlan(context.Background(), testAdapter{}, feed, store, opts)
	require.NoError(t, err)
	assert.Empty(t, plan.Operations)
}

func TestExecute_RetryExhaustion(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	gw.errs["create:A"] = &TransientError{Err: errors.New("rate limited")}

	cfg := fastConfig()
	cfg.MaxAttempts = 4

	report := executeFeed(t, store, gw, cfg, records(rec("A", 100, "fa")), Options{})

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusFailedExhausted, out.Status)
	assert.Equal(t, 4, out.Attempts)
	assert.Contains(t, out.Error, "rate limited")
	assert.Equal(t, 1, report.Failed)

	// Every attempt hit the gateway, none mutated the store.
	assert.Len(t, gw.callLog(), 4)
	m, err := store.Lookup(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestExecute_TransientThenSuccess(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	gw.failFirst["create:A"] = 1

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 100, "fa")), Options{})

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, StatusSucceeded, report.Outcomes[0].Status)
	assert.Equal(t, 2, report.Outcomes[0].Attempts)

	m, err := store.Lookup(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestExecute_PermanentFailureNoRetry(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	gw.errs["create:A"] = permanentErr{msg: "validation: power out of range"}

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 100, "fa")), Options{})

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	assert.Equal(t, StatusFailedPermanent, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Contains(t, out.Error, "validation")
	assert.Len(t, gw.callLog(), 1)
}

func TestExecute_PartialFailureIsolation(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	gw.errs["create:B"] = permanentErr{msg: "rejected"}

	cfg := fastConfig()
	cfg.Concurrency = 1

	report := executeFeed(t, store, gw, cfg,
		records(rec("A", 100, "fa"), rec("B", 200, "fb"), rec("C", 300, "fc")), Options{})

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)

	for _, key := range []string{"A", "C"} {
		m, err := store.Lookup(context.Background(), key)
		require.NoError(t, err)
		require.NotNil(t, m, "mapping for %s", key)
	}
	m, err := store.Lookup(context.Background(), "B")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestExecute_CloseAfterCreatePhase(t *testing.T) {
	// A is new, C must be closed. Even with the create stalled and high
	// concurrency, the close is never dispatched before the create ends.
	store := newMemStore(mapping("C", "R-C", 300, "fc"))
	gw := newFakeGateway()
	gw.blockCreate = make(chan struct{})

	plan, err := BuildPlan(context.Background(), testAdapter{}, records(rec("A", 100, "fa")), store, Options{CloseMissing: true})
	require.NoError(t, err)
	require.Len(t, plan.Operations, 2)

	exec := NewExecutor(testAdapter{}, store, gw, fastConfig(), zap.NewNop())

	done := make(chan *Report, 1)
	go func() { done <- exec.Execute(context.Background(), plan) }()

	// While the create is blocked, no close call may have happened.
	assert.Empty(t, gw.callLog())
	close(gw.blockCreate)

	report := <-done
	assert.Equal(t, []string{"create:A", "close:R-C"}, gw.callLog())
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Closed)

	m, err := store.Lookup(context.Background(), "C")
	require.NoError(t, err)
	assert.Nil(t, m, "closed mapping must be removed")
}

func TestExecute_SameKeySerialized(t *testing.T) {
	// Price and fields updates for the same vehicle run in plan order.
	store := newMemStore(mapping("A", "R-A", 20000, "fa"))
	gw := newFakeGateway()

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 18000, "fa2")),
		Options{UpdatePrices: true})

	assert.Equal(t, []string{"price:R-A:18000:true", "update:A"}, gw.callLog())
	assert.Equal(t, 1, report.PriceChanged)
	assert.Equal(t, 1, report.Updated)

	m, err := store.Lookup(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.LastKnownPrice.Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, "fa2", m.Fingerprint)
}

func TestExecute_CancelSkipsUndispatched(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := BuildPlan(context.Background(), testAdapter{}, records(rec("A", 100, "fa"), rec("B", 200, "fb")), store, Options{})
	require.NoError(t, err)

	exec := NewExecutor(testAdapter{}, store, gw, fastConfig(), zap.NewNop())
	report := exec.Execute(ctx, plan)

	assert.Empty(t, gw.callLog())
	assert.Equal(t, 2, report.Skipped)
	for _, out := range report.Outcomes {
		assert.Equal(t, StatusSkipped, out.Status)
		assert.True(t, out.Status.Terminal())
	}
}

func TestExecute_StoreWriteFailureIsWarning(t *testing.T) {
	store := newMemStore()
	store.recordErr = errors.New("disk full")
	gw := newFakeGateway()

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 100, "fa")), Options{})

	// The remote create succeeded; the store failure must not fail the run.
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "A", report.Warnings[0].Key)
	assert.Contains(t, report.Warnings[0].Message, "disk full")
}

func TestExecute_ReportOrderMatchesPlan(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	feed := records(rec("A", 1, "fa"), rec("B", 2, "fb"), rec("C", 3, "fc"), rec("D", 4, "fd"))

	cfg := fastConfig()
	cfg.Concurrency = 8

	report := executeFeed(t, store, gw, cfg, feed, Options{})

	require.Len(t, report.Outcomes, 4)
	for i, out := range report.Outcomes {
		assert.Equal(t, i, out.Operation.Seq)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{
		report.Outcomes[0].Operation.Key,
		report.Outcomes[1].Operation.Key,
		report.Outcomes[2].Operation.Key,
		report.Outcomes[3].Operation.Key,
	})
}

func TestReport_FailedKeys(t *testing.T) {
	store := newMemStore()
	gw := newFakeGateway()
	gw.errs["create:B"] = permanentErr{msg: "nope"}

	report := executeFeed(t, store, gw, fastConfig(), records(rec("A", 1, "fa"), rec("B", 2, "fb")), Options{})

	assert.Equal(t, []string{"B"}, report.FailedKeys())
}
