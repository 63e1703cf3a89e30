package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iho/txengine/internal/adapter/decoder"
	"github.com/iho/txengine/internal/adapter/reporter"
	"github.com/iho/txengine/internal/infrastructure/idgen"
	"github.com/iho/txengine/internal/infrastructure/metrics"
	"github.com/iho/txengine/internal/infrastructure/retry"
	"github.com/iho/txengine/internal/usecase"
)

type runOptions struct {
	format    string
	output    string
	shards    int
	sinks     []string
	reconcile bool
}

// pipeline is one processing run with its metrics.
type pipeline struct {
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	process  *usecase.ProcessUseCase
}

func (a *app) newPipeline(shards int) *pipeline {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	return &pipeline{
		registry: registry,
		metrics:  m,
		process: usecase.NewProcessUseCase(usecase.ProcessConfig{
			Shards:  shards,
			IDGen:   idgen.NewULIDGenerator(),
			Retrier: retry.New(a.logger, retry.WithMaxRetries(a.cfg.SinkMaxRetries)),
			Metrics: m,
			Logger:  a.logger,
		}),
	}
}

// processFile decodes path and applies it. Nothing is written when decoding fails.
func (p *pipeline) processFile(ctx context.Context, path string) (*usecase.RunResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return p.process.Run(ctx, decoder.New(f))
}

func (a *app) run(ctx context.Context, path string, opts runOptions) error {
	if err := validateSinks(opts.sinks); err != nil {
		return err
	}
	if _, err := reporter.New(opts.format, io.Discard); err != nil {
		return err
	}

	p := a.newPipeline(opts.shards)
	result, err := p.processFile(ctx, path)
	if err != nil {
		return err
	}

	if err := a.writeReport(ctx, result.Report, opts); err != nil {
		return err
	}

	if err := a.publish(ctx, p.process, result.Report, opts.sinks); err != nil {
		return err
	}

	if opts.reconcile {
		return a.reconcile(result)
	}
	return nil
}

func (a *app) writeReport(ctx context.Context, report *usecase.Report, opts runOptions) (err error) {
	var out io.Writer = a.stdout
	if opts.output != "" {
		f, createErr := os.Create(opts.output)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		out = f
	}

	r, err := reporter.New(opts.format, out)
	if err != nil {
		return err
	}

	if err := r.WriteAccounts(ctx, report); err != nil {
		return fmt.Errorf("write %s report: %w", r.Name(), err)
	}
	return nil
}

func (a *app) publish(ctx context.Context, uc *usecase.ProcessUseCase, report *usecase.Report, names []string) error {
	if len(names) == 0 {
		return nil
	}

	set, err := a.openSinks(ctx, names)
	if err != nil {
		return err
	}
	defer set.Close()

	return uc.Publish(ctx, report, set.sinks...)
}

func (a *app) reconcile(result *usecase.RunResult) error {
	report := usecase.NewReconciliationUseCase().Reconcile(result.Report.Accounts, result.Journal)

	a.logger.Info().
		Str("run_id", result.Report.RunID).
		Int("accounts", report.TotalAccounts).
		Int("reconciled", report.ReconciledAccounts).
		Int("discrepancies", len(report.Discrepancies)).
		Bool("consistent", report.LedgerConsistent).
		Msg("reconciliation completed")

	for _, d := range report.Discrepancies {
		a.logger.Warn().
			Uint16("client", uint16(d.ClientID)).
			Str("recorded_total", d.RecordedTotal.String()).
			Str("calculated_total", d.CalculatedTotal.String()).
			Bool("balanced", d.Balanced).
			Msg("account discrepancy")
	}

	if len(report.Discrepancies) > 0 || !report.LedgerConsistent {
		return fmt.Errorf("%w: %d of %d accounts", usecase.ErrInconsistentLedger, len(report.Discrepancies), report.TotalAccounts)
	}
	return nil
}
