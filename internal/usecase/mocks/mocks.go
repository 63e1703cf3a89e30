package mocks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// SliceSource is an in-memory TransactionSource.
// When Err is set it is returned once the slice is drained instead of io.EOF.
type SliceSource struct {
	Transactions []domain.Transaction
	Err          error

	pos int
}

func NewSliceSource(txs ...domain.Transaction) *SliceSource {
	return &SliceSource{Transactions: txs}
}

func (s *SliceSource) Next() (domain.Transaction, error) {
	if s.pos >= len(s.Transactions) {
		if s.Err != nil {
			return domain.Transaction{}, s.Err
		}
		return domain.Transaction{}, io.EOF
	}
	tx := s.Transactions[s.pos]
	s.pos++
	return tx, nil
}

// RecordingSink is an AccountSink that keeps every report it receives.
type RecordingSink struct {
	mu      sync.Mutex
	reports []*usecase.Report

	SinkName          string
	WriteAccountsFunc func(ctx context.Context, report *usecase.Report) error
}

func NewRecordingSink(name string) *RecordingSink {
	return &RecordingSink{SinkName: name}
}

func (s *RecordingSink) Name() string {
	return s.SinkName
}

func (s *RecordingSink) WriteAccounts(ctx context.Context, report *usecase.Report) error {
	if s.WriteAccountsFunc != nil {
		if err := s.WriteAccountsFunc(ctx, report); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

func (s *RecordingSink) Reports() []*usecase.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*usecase.Report(nil), s.reports...)
}

// SequenceIDGenerator returns run-1, run-2, and so on.
type SequenceIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewSequenceIDGenerator() *SequenceIDGenerator {
	return &SequenceIDGenerator{}
}

func (g *SequenceIDGenerator) Generate() string {
	if g.GenerateFunc != nil {
		return g.GenerateFunc()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("run-%d", g.counter)
}

// ImmediateRetrier runs the operation up to Attempts times without waiting.
type ImmediateRetrier struct {
	Attempts int

	mu    sync.Mutex
	calls int
}

func (r *ImmediateRetrier) Retry(ctx context.Context, operation func() error) error {
	attempts := max(r.Attempts, 1)

	var err error
	for i := 0; i < attempts; i++ {
		r.mu.Lock()
		r.calls++
		r.mu.Unlock()

		if err = operation(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (r *ImmediateRetrier) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
