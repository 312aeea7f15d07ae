// Package store persists enrichment runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/phone-insight/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 100

// runColumns is the select list shared by both backends.
const runColumns = `id, phone, status, COALESCE(report_status, ''), result, cost, created_at, updated_at`

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status       model.RunStatus    `json:"status,omitempty"`
	ReportStatus model.ReportStatus `json:"report_status,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	CreatedAfter time.Time          `json:"created_after,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Offset       int                `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for enrichment runs.
type Store interface {
	CreateRun(ctx context.Context, phone string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.CombinedResult, cost float64) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// reportStatusOf returns the terminal status recorded for a result.
func reportStatusOf(result *model.CombinedResult) model.ReportStatus {
	if result == nil || result.SalesInsightReport == nil {
		return ""
	}
	return result.SalesInsightReport.Status
}
