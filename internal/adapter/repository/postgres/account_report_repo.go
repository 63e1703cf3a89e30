package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

const upsertAccountReport = `
INSERT INTO account_reports (run_id, client_id, available, held, total, locked, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, client_id) DO UPDATE
SET available = EXCLUDED.available,
    held = EXCLUDED.held,
    total = EXCLUDED.total,
    locked = EXCLUDED.locked,
    generated_at = EXCLUDED.generated_at`

const listAccountReportsByRun = `
SELECT client_id, available, held, total, locked
FROM account_reports
WHERE run_id = $1
ORDER BY client_id`

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AccountReportRepository implements usecase.AccountSink on the account_reports table.
type AccountReportRepository struct {
	pool pgxPool
}

// NewAccountReportRepository creates a new AccountReportRepository.
func NewAccountReportRepository(pool *pgxpool.Pool) *AccountReportRepository {
	return newAccountReportRepositoryWithPool(pool)
}

func newAccountReportRepositoryWithPool(pool pgxPool) *AccountReportRepository {
	return &AccountReportRepository{pool: pool}
}

func (r *AccountReportRepository) Name() string { return "postgres" }

// WriteAccounts upserts every account of report in one transaction.
func (r *AccountReportRepository) WriteAccounts(ctx context.Context, report *usecase.Report) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	for _, account := range report.Accounts {
		batch.Queue(upsertAccountReport,
			report.RunID,
			int32(account.ID),
			decimalToNumeric(account.Available),
			decimalToNumeric(account.Held),
			decimalToNumeric(account.Total),
			account.Locked,
			timeToPgTimestamptz(report.GeneratedAt),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, account := range report.Accounts {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			return classify(fmt.Errorf("upsert account %d: %w", account.ID, err))
		}
	}
	if err = results.Close(); err != nil {
		return classify(fmt.Errorf("close batch: %w", err))
	}

	if err = tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// ListByRun returns the accounts written by runID ordered by client id.
func (r *AccountReportRepository) ListByRun(ctx context.Context, runID string) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, listAccountReportsByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var row accountReportRow
		if err := rows.Scan(&row.ClientID, &row.Available, &row.Held, &row.Total, &row.Locked); err != nil {
			return nil, err
		}
		accounts = append(accounts, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrAccountNotFound)
	}
	return accounts, nil
}

// IsNotFound reports whether err means nothing was stored.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, pgx.ErrNoRows)
}
