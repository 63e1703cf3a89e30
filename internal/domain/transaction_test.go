package domain

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil {
			t.Fatalf("ParseKind(%q) returned error: %v", k, err)
		}
		if got != k {
			t.Fatalf("ParseKind(%q) = %q", k, got)
		}
	}

	for _, bad := range []string{"Deposit", "DEPOSIT", "", "refund", " deposit"} {
		if _, err := ParseKind(bad); !errors.Is(err, ErrUnknownKind) {
			t.Fatalf("expected ErrUnknownKind for %q, got %v", bad, err)
		}
	}
}

func TestKind_HasAmount(t *testing.T) {
	t.Parallel()

	want := map[Kind]bool{
		KindDeposit:    true,
		KindWithdrawal: true,
		KindDispute:    false,
		KindResolve:    false,
		KindChargeback: false,
	}

	for k, expected := range want {
		if k.HasAmount() != expected {
			t.Errorf("%s.HasAmount() = %v, want %v", k, k.HasAmount(), expected)
		}
	}
}

func TestTransaction_Key(t *testing.T) {
	t.Parallel()

	tx := NewDispute(3, 77)
	if tx.Key() != (DepositKey{ClientID: 3, TxID: 77}) {
		t.Fatalf("unexpected key %+v", tx.Key())
	}
}
