package reconcile

import (
	"context"
	"errors"
	"time"

	"doc-sync/core/document"

	"go.uber.org/zap"
)

// DriverConfig holds the options for NewDriver.
type DriverConfig struct {
	// A and B are the two stores to keep converged.
	A Store
	B Store

	// Interval is the idle time between passes. Must be strictly positive.
	Interval time.Duration

	// InitialSync requests one unbounded pass before the periodic loop
	// starts, covering documents older than the process itself.
	InitialSync bool

	// Logger renders per-pass progress. Defaults to zap's global logger.
	Logger *zap.Logger

	// Clock supplies the watermark timestamps. Defaults to wall-clock time.
	Clock document.Clock
}

// Driver runs reconciliation passes serially at a fixed interval and owns the
// watermark used for incremental passes. At most one pass is ever in flight;
// cancellation takes effect at the idle boundary between passes.
type Driver struct {
	a, b        Store
	interval    time.Duration
	initialSync bool
	log         *zap.Logger
	clock       document.Clock

	// reconcile is swappable for tests.
	reconcile func(ctx context.Context, a, b Store, since *time.Time) (Report, error)
}

// NewDriver validates the configuration and builds a driver.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.A == nil || cfg.B == nil {
		return nil, errors.New("driver requires two stores")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("sync interval must be strictly positive")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.L()
	}
	return &Driver{
		a:           cfg.A,
		b:           cfg.B,
		interval:    cfg.Interval,
		initialSync: cfg.InitialSync,
		log:         log,
		clock:       cfg.Clock,
		reconcile:   Reconcile,
	}, nil
}

// Run executes the sync loop until ctx is cancelled, then returns ctx.Err().
//
// Watermark discipline: now is captured before each periodic pass and the
// watermark only advances to that captured value after the pass finishes, so
// documents written during the pass window are re-considered next time. The
// watermark advances even when a pass fails; a single failing pass trades a
// possibly missed window for forward progress, and never kills the loop.
func (d *Driver) Run(ctx context.Context) error {
	if d.initialSync {
		d.log.Info("Starting initial full synchronization")
		d.pass(ctx, nil)
	}

	watermark := d.clock.Now()
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		now := d.clock.Now()
		since := watermark
		d.pass(ctx, &since)
		watermark = now

		timer.Reset(d.interval)
	}
}

// pass runs one reconciliation and logs the outcome. Errors are surfaced to
// the operator here and deliberately not propagated: the pass is idempotent
// and the next one re-detects anything left outstanding.
func (d *Driver) pass(ctx context.Context, since *time.Time) {
	fields := []zap.Field{
		zap.String("store_a", d.a.Name()),
		zap.String("store_b", d.b.Name()),
	}
	if since != nil {
		fields = append(fields, zap.Time("since", *since))
	}
	d.log.Debug("Reconciliation pass starting", fields...)

	report, err := d.reconcile(ctx, d.a, d.b, since)
	if err != nil {
		d.log.Error("Reconciliation pass failed", append(fields, zap.Error(err))...)
		return
	}

	d.log.Info("Reconciliation pass complete", append(fields,
		zap.Int("queried_a", report.QueriedA),
		zap.Int("queried_b", report.QueriedB),
		zap.Int("upserted_into_b", report.UpsertedIntoB),
		zap.Int("upserted_into_a", report.UpsertedIntoA),
	)...)
}
