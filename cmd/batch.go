package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/phone-insight/internal/batchfile"
	"github.com/sells-group/phone-insight/internal/model"
)

var (
	batchInput       string
	batchColumn      string
	batchSheet       string
	batchOutput      string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich every phone number in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := os.Create(batchOutput)
		if err != nil {
			return eris.Wrapf(err, "batch: create output %s", batchOutput)
		}
		defer out.Close() //nolint:errcheck

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		summary, err := processBatch(ctx, env.Pipeline, out, batchOptions{
			Input:       batchInput,
			Column:      batchColumn,
			Sheet:       batchSheet,
			Limit:       batchLimit,
			Concurrency: concurrency,
			RatePerSec:  cfg.Batch.RatePerSec,
		})
		if err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int("total", summary.Total),
			zap.Int("success", summary.Success),
			zap.Int("no_business_found", summary.NoBusinessFound),
			zap.Int("errors", summary.Errors),
			zap.String("output", batchOutput),
		)
		return nil
	},
}

// batchOptions configures processBatch.
type batchOptions struct {
	Input       string
	Column      string
	Sheet       string
	Limit       int
	Concurrency int
	RatePerSec  float64
}

// batchSummary counts batch outcomes by report status.
type batchSummary struct {
	Total           int
	Success         int
	NoBusinessFound int
	Errors          int
}

// batchLine is one JSONL record in the batch output.
type batchLine struct {
	Row    int                   `json:"row"`
	Phone  string                `json:"phone"`
	Result *model.CombinedResult `json:"result"`
}

type enricher interface {
	Run(ctx context.Context, phone string) *model.CombinedResult
}

// processBatch streams phones from opts.Input through p and writes one JSONL
// line per phone to w. Output order follows completion, not input order.
func processBatch(ctx context.Context, p enricher, w io.Writer, opts batchOptions) (batchSummary, error) {
	entries, errs := batchfile.Stream(ctx, opts.Input, batchfile.Options{
		Column: opts.Column,
		Sheet:  opts.Sheet,
	})

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	var (
		mu              sync.Mutex
		enc             = json.NewEncoder(w)
		total           atomic.Int32
		success         atomic.Int32
		noBusinessFound atomic.Int32
		failed          atomic.Int32
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	// Entries are always drained so the reader goroutine can exit.
	dispatched := 0
	stopped := false
	for entry := range entries {
		if stopped || (opts.Limit > 0 && dispatched >= opts.Limit) {
			continue
		}
		if gCtx.Err() != nil {
			stopped = true
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(gCtx); err != nil {
				stopped = true
				continue
			}
		}
		dispatched++

		g.Go(func() error {
			result := p.Run(gCtx, entry.Phone)
			total.Add(1)

			switch result.SalesInsightReport.Status {
			case model.StatusSuccess:
				success.Add(1)
			case model.StatusNoBusinessFound:
				noBusinessFound.Add(1)
			default:
				failed.Add(1)
			}

			mu.Lock()
			defer mu.Unlock()
			if err := enc.Encode(batchLine{Row: entry.Row, Phone: entry.Phone, Result: result}); err != nil {
				return eris.Wrapf(err, "batch: write row %d", entry.Row)
			}
			return nil
		})
	}

	waitErr := g.Wait()

	summary := batchSummary{
		Total:           int(total.Load()),
		Success:         int(success.Load()),
		NoBusinessFound: int(noBusinessFound.Load()),
		Errors:          int(failed.Load()),
	}

	if err := <-errs; err != nil {
		return summary, err
	}
	if waitErr != nil {
		return summary, waitErr
	}
	return summary, ctx.Err()
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file of phone numbers")
	batchCmd.Flags().StringVar(&batchColumn, "column", "", "header of the phone column (default: detect)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "XLSX worksheet name (default: first sheet)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "results.jsonl", "JSONL output file")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max phones to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel enrichments (default from config)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
