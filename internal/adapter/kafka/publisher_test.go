package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

type stubWriter struct {
	messages []kafka.Message
	calls    int
	err      error
	closed   bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func testReport() *usecase.Report {
	return &usecase.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Accounts: []domain.Account{
			{ID: 1, Available: decimal.RequireFromString("1.5"), Held: decimal.Zero, Total: decimal.RequireFromString("1.5")},
			{ID: 300, Available: decimal.Zero, Held: decimal.Zero, Total: decimal.Zero, Locked: true},
		},
	}
}

func TestPublisherWriteAccounts(t *testing.T) {
	w := &stubWriter{}
	p := newPublisherWithWriter(w, "accounts")

	if err := p.WriteAccounts(context.Background(), testReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.calls != 1 {
		t.Fatalf("expected one batch write, got %d", w.calls)
	}
	if len(w.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.messages))
	}

	msg := w.messages[1]
	if string(msg.Key) != "300" {
		t.Fatalf("expected key 300, got %q", msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != HeaderRunID || string(msg.Headers[0].Value) != "run-1" {
		t.Fatalf("expected run_id header, got %+v", msg.Headers)
	}

	var value AccountMessage
	if err := json.Unmarshal(msg.Value, &value); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if value.RunID != "run-1" || value.Client != 300 || !value.Locked || value.Total != "0.0000" {
		t.Fatalf("unexpected message value %+v", value)
	}
}

func TestPublisherSkipsEmptyReport(t *testing.T) {
	w := &stubWriter{}
	p := newPublisherWithWriter(w, "accounts")

	if err := p.WriteAccounts(context.Background(), &usecase.Report{RunID: "run-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.calls != 0 {
		t.Fatalf("expected no writes, got %d", w.calls)
	}
}

func TestPublisherPropagatesWriteError(t *testing.T) {
	writeErr := errors.New("leader not available")
	p := newPublisherWithWriter(&stubWriter{err: writeErr}, "accounts")

	err := p.WriteAccounts(context.Background(), testReport())
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestPublisherClose(t *testing.T) {
	w := &stubWriter{}
	p := newPublisherWithWriter(w, "accounts")

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
	if p.Name() != "kafka" {
		t.Fatalf("expected sink name kafka, got %s", p.Name())
	}
}

func TestNewPublisherConfiguresWriter(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "accounts")

	w, ok := p.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("expected *kafka.Writer, got %T", p.writer)
	}
	if w.Topic != "accounts" {
		t.Fatalf("expected topic accounts, got %s", w.Topic)
	}
	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer, got %T", w.Balancer)
	}
}
