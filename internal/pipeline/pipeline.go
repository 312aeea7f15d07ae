// Package pipeline turns a phone number into a sales insight report: caller
// ID lookup, business classification, web research and report validation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/phone-insight/internal/cost"
	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/resilience"
	"github.com/sells-group/phone-insight/internal/store"
	"github.com/sells-group/phone-insight/pkg/trestle"
)

// Report messages for each terminal status.
const (
	MsgLookupFailed = "Failed to retrieve initial data from Trestle."
	MsgNoBusiness   = "Trestle data did not identify a business or business name for this number."
)

const lookupService = "trestle"

// Pipeline runs the enrichment state machine for one phone number at a time.
// It holds no per-run state, so a single Pipeline serves concurrent runs.
type Pipeline struct {
	lookup     trestle.Client
	researcher Researcher
	store      store.Store
	costCalc   *cost.Calculator
	guards     *resilience.Guards
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore records every run in st. Store failures are logged only.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithCostCalculator overrides the default pricing.
func WithCostCalculator(c *cost.Calculator) Option {
	return func(p *Pipeline) { p.costCalc = c }
}

// WithGuards routes provider calls through per-service breakers and limiters.
func WithGuards(g *resilience.Guards) Option {
	return func(p *Pipeline) { p.guards = g }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(lookup trestle.Client, researcher Researcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		lookup:     lookup,
		researcher: researcher,
		costCalc:   cost.NewCalculator(cost.DefaultRates()),
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run enriches phone. It always returns a result whose report is in exactly
// one terminal status; provider failures are reported, not returned.
func (p *Pipeline) Run(ctx context.Context, phone string) *model.CombinedResult {
	log := zap.L().With(zap.String("phone", model.MaskPhone(phone)))
	start := p.now()

	report := model.NewReport()
	result := &model.CombinedResult{SalesInsightReport: report}
	usage := model.Usage{}

	runID := p.startRun(ctx, phone, log)
	defer func() {
		p.completeRun(ctx, runID, result, usage, log)
		log.Info("pipeline: run complete",
			zap.String("status", string(report.Status)),
			zap.Duration("duration", p.now().Sub(start)),
		)
	}()

	finish := func(status model.ReportStatus, outcomes ...model.Outcome) {
		if err := report.Finish(status, outcomes...); err != nil {
			log.Error("pipeline: ignored terminal transition", zap.Error(err))
		}
	}

	// 1. Caller ID lookup.
	meta, err := resilience.Call(ctx, p.guard(lookupService), func(ctx context.Context) (*trestle.CallerIDResponse, error) {
		return p.lookup.CallerID(ctx, phone)
	})
	if err != nil {
		log.Warn("pipeline: caller id lookup failed", zap.Error(err))
		finish(model.StatusError, model.WithError(MsgLookupFailed, "Data source error: "+dataSourceDetail(err)))
		return result
	}
	usage.Lookups++
	result.TrestleData = meta

	// 2. Classification.
	hint := Classify(meta, phone)
	if hint.AreaCodeHint == "" {
		log.Debug("pipeline: no standard area code")
	}
	if !hint.IsBusiness() {
		log.Info("pipeline: no business identified")
		finish(model.StatusNoBusinessFound, model.WithMessage(MsgNoBusiness), model.WithTimestamp(Timestamp(p.now())))
		return result
	}

	// 3. Research.
	provider := p.researcher.Provider()
	fail := func(err error) {
		cause := err.Error()
		log.Warn("pipeline: research failed", zap.String("provider", provider), zap.Error(err))
		finish(model.StatusError,
			model.WithIdentity(hint.BusinessName, hint.LocationHint),
			model.WithError(cause, fmt.Sprintf("AI research failed (Source: %s). %s", provider, cause)),
			model.WithTimestamp(Timestamp(p.now())),
		)
	}

	prompt := BuildPrompt(hint)
	completion, err := resilience.Call(ctx, p.guard(strings.ToLower(provider)), func(ctx context.Context) (*Completion, error) {
		return p.researcher.Research(ctx, prompt)
	})
	if err != nil {
		fail(err)
		return result
	}
	usage.ResearchQueries++
	usage.ResearchProvider = strings.ToLower(provider)
	usage.ResearchModel = completion.Model
	usage.InputTokens += completion.InputTokens
	usage.OutputTokens += completion.OutputTokens

	// 4. Extraction and validation.
	raw, err := ExtractJSON(completion.Text)
	if err != nil {
		fail(err)
		return result
	}

	validated := Validate(raw, hint, p.now())
	finish(model.StatusSuccess, model.WithContent(validated))
	return result
}

func (p *Pipeline) guard(service string) *resilience.Guard {
	if p.guards == nil {
		return nil
	}
	return p.guards.Get(service)
}

func (p *Pipeline) startRun(ctx context.Context, phone string, log *zap.Logger) string {
	if p.store == nil {
		return ""
	}
	run, err := p.store.CreateRun(ctx, phone)
	if err != nil {
		log.Warn("pipeline: failed to create run", zap.Error(err))
		return ""
	}
	return run.ID
}

func (p *Pipeline) completeRun(ctx context.Context, runID string, result *model.CombinedResult, usage model.Usage, log *zap.Logger) {
	if p.store == nil || runID == "" {
		return
	}
	// Record the outcome even when the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	if err := p.store.CompleteRun(ctx, runID, result, p.costCalc.Run(usage)); err != nil {
		log.Warn("pipeline: failed to complete run", zap.String("run_id", runID), zap.Error(err))
	}
}

// dataSourceDetail describes a lookup failure: the HTTP reason phrase (or
// numeric code) for a provider answer, otherwise a short transport summary.
func dataSourceDetail(err error) string {
	var apiErr *trestle.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.StatusText()
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "Service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	default:
		return "Request failed"
	}
}
