package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleet-sync/core/logger"
	"fleet-sync/core/reconcile"
	"fleet-sync/feature/vehicle"
	"fleet-sync/feature/vehicle/models"
)

// Service runs complete synchronization runs: plan, execute, archive.
type Service struct {
	store   reconcile.Store
	mutator reconcile.Mutator
	cfg     reconcile.Config
	log     *zap.Logger
	archive *Archive
}

// NewService creates a service. archive may be nil to disable run archival.
func NewService(store reconcile.Store, mutator reconcile.Mutator, cfg reconcile.Config, log *zap.Logger, archive *Archive) *Service {
	return &Service{
		store:   store,
		mutator: mutator,
		cfg:     cfg,
		log:     log,
		archive: archive,
	}
}

// RunInput carries everything one synchronization run needs.
type RunInput struct {
	// Records are the parsed feed entries.
	Records []*models.VehicleRecord

	// ParseErrors are the loader's row-level failures; they ride along
	// into the final report.
	ParseErrors []reconcile.RowError

	// Feed is the raw CSV for the run archive. Optional.
	Feed []byte

	// Options selects the operation classes the run may perform.
	Options reconcile.Options

	// DryRun builds and reports the plan without executing it.
	DryRun bool
}

// Run executes one synchronization run to completion and returns its
// report. Only planning failures (an unreachable identity store) are
// returned as errors; operation failures are recorded in the report.
func (s *Service) Run(ctx context.Context, in RunInput) (*reconcile.Report, error) {
	runID := uuid.NewString()
	log := logger.WithRunID(s.log, runID)

	started := time.Now()
	log.Info("synchronization run started",
		zap.Int("records", len(in.Records)),
		zap.Int("parse_errors", len(in.ParseErrors)),
		zap.Bool("dry_run", in.DryRun),
		zap.Bool("close_missing", in.Options.CloseMissing),
		zap.Bool("update_prices", in.Options.UpdatePrices),
	)

	records := make([]reconcile.Record, len(in.Records))
	for i, rec := range in.Records {
		records[i] = rec
	}

	adapter := vehicle.Adapter{}
	plan, err := reconcile.BuildPlan(ctx, adapter, records, s.store, in.Options)
	if err != nil {
		log.Error("planning failed", zap.Error(err))
		return nil, err
	}

	var report *reconcile.Report
	if in.DryRun {
		report = &reconcile.Report{
			DryRun:   true,
			Plan:     plan.Summary,
			Planned:  plan.Operations,
			Warnings: plan.Warnings,
		}
	} else {
		exec := reconcile.NewExecutor(adapter, s.store, s.mutator, s.cfg, log)
		report = exec.Execute(ctx, plan)
	}
	report.RunID = runID
	report.ParseErrors = in.ParseErrors

	s.archiveRun(ctx, runID, in.Feed, report, log)

	log.Info("synchronization run finished",
		zap.Duration("took", time.Since(started)),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("price_changed", report.PriceChanged),
		zap.Int("closed", report.Closed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// archiveRun stores the raw feed and the report. Archive failures never
// fail the run; the catalog work already happened.
func (s *Service) archiveRun(ctx context.Context, runID string, feed []byte, report *reconcile.Report, log *zap.Logger) {
	if s.archive == nil {
		return
	}
	// The run may have been cancelled; the archive write still matters.
	ctx = context.WithoutCancel(ctx)

	if len(feed) > 0 {
		if err := s.archive.StoreFeed(ctx, runID, feed); err != nil {
			log.Error("feed archival failed", zap.Error(err))
			report.Warnings = append(report.Warnings, reconcile.Warning{Message: "feed archival failed: " + err.Error()})
		}
	}
	if err := s.archive.StoreReport(ctx, runID, report); err != nil {
		log.Error("report archival failed", zap.Error(err))
		report.Warnings = append(report.Warnings, reconcile.Warning{Message: "report archival failed: " + err.Error()})
	}
}
