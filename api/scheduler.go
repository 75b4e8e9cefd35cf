/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically snapshots every control-account module against its sub-ledger
  so drift surfaces without anyone clicking a button. Variances are logged
  and appended to history; nothing is auto-corrected.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick runs all modules as of today and logs unreconciled ones
  - History is append-only, so skipped or failed ticks lose nothing

USAGE:
  scheduler := NewReconciliationScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunReconciliation endpoint (manual snapshot)
  - reconcile: The snapshot engine itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keystone/ledger-engine/ledger"
)

// ReconciliationScheduler handles automated reconciliation snapshots.
type ReconciliationScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(handler *Handler) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Handler.Log.Info("reconciliation scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Handler.Log.WithField("interval", rs.CheckInterval).Info("reconciliation scheduler started")
}

// Stop stops the scheduler.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Handler.Log.Info("reconciliation scheduler stopped")
	}
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.snapshot()

	for {
		select {
		case <-rs.ticker.C:
			rs.snapshot()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) snapshot() {
	ctx := context.Background()
	org := rs.Handler.DefaultOrg
	asOf := ledger.Today()

	results, err := rs.Handler.Reconciler.Reconcile(ctx, org, asOf)
	if err != nil {
		rs.Handler.Log.WithError(err).Error("scheduled reconciliation failed")
		return
	}

	unreconciled := 0
	for _, rec := range results {
		if rec.IsReconciled {
			continue
		}
		unreconciled++
		rs.Handler.Log.WithFields(logrus.Fields{
			"module":    rec.Module,
			"org":       rec.Org,
			"gl":        rec.GLBalance.String(),
			"subledger": rec.SubledgerBalance.String(),
			"variance":  rec.Variance.String(),
		}).Warn("scheduled reconciliation variance")
	}
	rs.Handler.Log.WithFields(logrus.Fields{
		"modules":      len(results),
		"unreconciled": unreconciled,
		"as_of":        asOf.String(),
	}).Info("scheduled reconciliation completed")
}

// RunNow triggers an immediate snapshot (for testing/admin).
func (rs *ReconciliationScheduler) RunNow() {
	rs.snapshot()
}
