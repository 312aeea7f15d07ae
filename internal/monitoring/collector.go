// Package monitoring summarizes recent enrichment runs and alerts when the
// error rate, spend or provider health crosses a threshold.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/resilience"
	"github.com/sells-group/phone-insight/internal/store"
)

// maxWindowRuns bounds how many runs a single collection reads.
const maxWindowRuns = 10000

// MetricsSnapshot holds a point-in-time view of enrichment health.
type MetricsSnapshot struct {
	// Runs within the lookback window.
	RunsTotal   int `json:"runs_total"`
	RunsRunning int `json:"runs_running"`

	// Finished runs by report status.
	Success         int     `json:"success"`
	NoBusinessFound int     `json:"no_business_found"`
	Errors          int     `json:"errors"`
	ErrorRate       float64 `json:"error_rate"`

	CostUSD    float64 `json:"cost_usd"`
	AvgCostUSD float64 `json:"avg_cost_usd"`

	// Services whose circuit breaker is open.
	OpenCircuits []string `json:"open_circuits,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Finished returns the number of runs that reached a terminal report status.
func (s *MetricsSnapshot) Finished() int {
	return s.Success + s.NoBusinessFound + s.Errors
}

// Collector gathers metrics from the run store and the provider guards.
type Collector struct {
	store  store.Store
	guards *resilience.Guards
	now    func() time.Time
}

// NewCollector creates a new metrics collector. guards may be nil.
func NewCollector(st store.Store, guards *resilience.Guards) *Collector {
	return &Collector{store: st, guards: guards, now: time.Now}
}

// Collect gathers a snapshot of run metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxWindowRuns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	for _, r := range runs {
		snap.CostUSD += r.Cost
		if r.Status != model.RunStatusComplete {
			snap.RunsRunning++
			continue
		}
		switch r.ReportStatus {
		case model.StatusSuccess:
			snap.Success++
		case model.StatusNoBusinessFound:
			snap.NoBusinessFound++
		case model.StatusError:
			snap.Errors++
		}
	}

	if finished := snap.Finished(); finished > 0 {
		snap.ErrorRate = float64(snap.Errors) / float64(finished)
	}
	if snap.RunsTotal > 0 {
		snap.AvgCostUSD = snap.CostUSD / float64(snap.RunsTotal)
	}

	if c.guards != nil {
		snap.OpenCircuits = c.guards.Open()
	}
	return snap, nil
}
