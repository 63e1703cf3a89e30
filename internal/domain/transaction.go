package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TxID identifies a transaction within a single client's stream.
type TxID uint32

// Kind is the type of a transaction.
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Kinds lists every transaction kind in input-format order.
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback}

// ParseKind maps an exact, case-sensitive keyword to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// HasAmount reports whether transactions of this kind carry an amount.
func (k Kind) HasAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Transaction is an immutable input event.
// Amount is only meaningful for deposits and withdrawals.
type Transaction struct {
	TxID     TxID
	ClientID ClientID
	Kind     Kind
	Amount   decimal.Decimal
}

// Key returns the deposit key this transaction creates or references.
func (t Transaction) Key() DepositKey {
	return DepositKey{ClientID: t.ClientID, TxID: t.TxID}
}

// NewDeposit builds a deposit transaction.
func NewDeposit(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{TxID: tx, ClientID: client, Kind: KindDeposit, Amount: amount}
}

// NewWithdrawal builds a withdrawal transaction.
func NewWithdrawal(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{TxID: tx, ClientID: client, Kind: KindWithdrawal, Amount: amount}
}

// NewDispute builds a dispute referencing a prior deposit of the same client.
func NewDispute(client ClientID, tx TxID) Transaction {
	return Transaction{TxID: tx, ClientID: client, Kind: KindDispute}
}

// NewResolve builds a resolve referencing a disputed deposit.
func NewResolve(client ClientID, tx TxID) Transaction {
	return Transaction{TxID: tx, ClientID: client, Kind: KindResolve}
}

// NewChargeback builds a chargeback referencing a disputed deposit.
func NewChargeback(client ClientID, tx TxID) Transaction {
	return Transaction{TxID: tx, ClientID: client, Kind: KindChargeback}
}
