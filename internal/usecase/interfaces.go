package usecase

import (
	"context"

	"github.com/iho/txengine/internal/domain"
)

// TransactionSource yields decoded transactions in input order.
// Next returns io.EOF after the last transaction.
type TransactionSource interface {
	Next() (domain.Transaction, error)
}

// AccountSink receives the final account report of a run.
type AccountSink interface {
	Name() string
	WriteAccounts(ctx context.Context, report *Report) error
}

// Retrier retries an operation with backoff.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
