package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetrier(opts ...Option) *Retrier {
	opts = append([]Option{
		WithIntervals(time.Millisecond, 2*time.Millisecond),
		WithMaxElapsedTime(time.Second),
	}, opts...)
	return New(zerolog.Nop(), opts...)
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := fastRetrier(WithMaxRetries(2))

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier()
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return Permanent(permanentErr)
	})

	if !errors.Is(err, permanentErr) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierGivesUpAfterMaxRetries(t *testing.T) {
	r := fastRetrier(WithMaxRetries(2))
	attempts := 0
	transient := errors.New("timeout")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrierUsesClassifier(t *testing.T) {
	onlyTimeouts := func(err error) bool { return err.Error() == "timeout" }
	r := fastRetrier(WithClassifier(onlyTimeouts))

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		return errors.New("syntax error")
	})

	if err == nil || attempts != 1 {
		t.Fatalf("expected single failing attempt, got attempts=%d err=%v", attempts, err)
	}
}

func TestRetrierStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := fastRetrier(WithMaxRetries(100))

	attempts := 0
	err := r.Retry(ctx, func() error {
		attempts++
		cancel()
		return errors.New("transient")
	})

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("other"), true},
		{Permanent(errors.New("bad")), false},
		{fmt.Errorf("wrapped: %w", Permanent(errors.New("bad"))), false},
		{context.Canceled, false},
		{fmt.Errorf("write: %w", context.DeadlineExceeded), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Fatalf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	if Permanent(nil) != nil {
		t.Fatal("expected Permanent(nil) to be nil")
	}
}
