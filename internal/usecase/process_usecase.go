package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/infrastructure/metrics"
)

// ProcessUseCase runs a transaction stream through the ledger engine and
// publishes the resulting account report.
type ProcessUseCase struct {
	shards  int
	idGen   IDGenerator
	retrier Retrier
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// ProcessConfig configures a ProcessUseCase.
type ProcessConfig struct {
	// Shards above one materializes the input and applies it on a ShardedEngine.
	Shards  int
	IDGen   IDGenerator
	Retrier Retrier
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewProcessUseCase creates a new ProcessUseCase.
func NewProcessUseCase(cfg ProcessConfig) *ProcessUseCase {
	return &ProcessUseCase{
		shards:  cfg.Shards,
		idGen:   cfg.IDGen,
		retrier: cfg.Retrier,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run consumes source until io.EOF. A decode error aborts the run and no
// report is produced.
func (uc *ProcessUseCase) Run(ctx context.Context, source TransactionSource) (*RunResult, error) {
	start := uc.now()
	runID := uc.idGen.Generate()
	logger := uc.logger.With().Str("run_id", runID).Logger()

	result := &RunResult{Journal: NewJournal()}

	var accounts []domain.Account
	if uc.shards > 1 {
		txs, err := uc.collect(ctx, source)
		if err != nil {
			return nil, err
		}

		engine := NewShardedEngine(uc.shards)
		outcomes, err := engine.ProcessAll(ctx, txs)
		if err != nil {
			return nil, err
		}

		for i, tx := range txs {
			uc.observe(logger, result, tx, outcomes[i])
		}
		accounts = engine.Snapshot()
	} else {
		engine := NewEngine()
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			tx, err := uc.next(source)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}

			uc.observe(logger, result, tx, engine.Apply(tx))
		}
		accounts = engine.Snapshot()
	}

	result.Report = &Report{
		RunID:       runID,
		GeneratedAt: uc.now(),
		Accounts:    accounts,
	}
	result.Duration = uc.now().Sub(start)

	if uc.metrics != nil {
		uc.metrics.ProcessingDuration.Observe(result.Duration.Seconds())
		uc.metrics.Accounts.Set(float64(len(accounts)))
		uc.metrics.LockedAccounts.Set(float64(result.Report.LockedAccounts()))
	}

	logger.Info().
		Int("processed", result.Processed).
		Int("ignored", result.Ignored).
		Int("accounts", len(accounts)).
		Int("shards", max(uc.shards, 1)).
		Dur("duration", result.Duration).
		Msg("transactions processed")

	return result, nil
}

func (uc *ProcessUseCase) next(source TransactionSource) (domain.Transaction, error) {
	tx, err := source.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		if uc.metrics != nil {
			uc.metrics.DecodeErrors.Inc()
		}
		return domain.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, err
}

func (uc *ProcessUseCase) collect(ctx context.Context, source TransactionSource) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tx, err := uc.next(source)
		if errors.Is(err, io.EOF) {
			return txs, nil
		}
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
}

func (uc *ProcessUseCase) observe(logger zerolog.Logger, result *RunResult, tx domain.Transaction, outcome Outcome) {
	result.Processed++
	result.Journal.Record(tx, outcome)

	status := "applied"
	if !outcome.Applied() {
		status = "ignored"
		result.Ignored++

		logger.Debug().
			Str("kind", string(tx.Kind)).
			Uint16("client", uint16(tx.ClientID)).
			Uint32("tx", uint32(tx.TxID)).
			Str("reason", outcome.Reason()).
			Msg("transaction ignored")
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsProcessed.WithLabelValues(string(tx.Kind), status).Inc()
		if !outcome.Applied() {
			uc.metrics.TransactionsIgnored.WithLabelValues(string(tx.Kind), outcome.Reason()).Inc()
		}
	}
}

// Publish writes report to every sink. A failing sink does not stop the others;
// all failures are returned joined.
func (uc *ProcessUseCase) Publish(ctx context.Context, report *Report, sinks ...AccountSink) error {
	var errs []error

	for _, sink := range sinks {
		if err := uc.publish(ctx, report, sink); err != nil {
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
		}
	}

	return errors.Join(errs...)
}

func (uc *ProcessUseCase) publish(ctx context.Context, report *Report, sink AccountSink) error {
	sinkCtx, cancel := context.WithTimeout(ctx, DefaultSinkTimeout)
	defer cancel()

	start := time.Now()
	write := func() error { return sink.WriteAccounts(sinkCtx, report) }

	var err error
	if uc.retrier != nil {
		err = uc.retrier.Retry(sinkCtx, write)
	} else {
		err = write()
	}

	status := "success"
	if err != nil {
		status = "error"
		uc.logger.Error().Err(err).Str("sink", sink.Name()).Str("run_id", report.RunID).Msg("failed to write report")
	} else {
		uc.logger.Info().Str("sink", sink.Name()).Int("accounts", len(report.Accounts)).Str("run_id", report.RunID).Msg("report written")
	}

	if uc.metrics != nil {
		uc.metrics.SinkWrites.WithLabelValues(sink.Name(), status).Inc()
		uc.metrics.SinkDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
	}

	return err
}
