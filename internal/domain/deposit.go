package domain

import (
	"github.com/shopspring/decimal"
)

// DepositKey scopes a transaction id to the client that issued it.
type DepositKey struct {
	ClientID ClientID
	TxID     TxID
}

type DisputeState string

const (
	DisputeStateNotDisputed DisputeState = "not_disputed"
	DisputeStateDisputed    DisputeState = "disputed"
)

// DepositRecord is the remembered form of an accepted deposit.
type DepositRecord struct {
	Key    DepositKey
	Amount decimal.Decimal
	State  DisputeState
}

// NewDepositRecord returns an undisputed record for an accepted deposit.
func NewDepositRecord(key DepositKey, amount decimal.Decimal) *DepositRecord {
	return &DepositRecord{
		Key:    key,
		Amount: amount,
		State:  DisputeStateNotDisputed,
	}
}

// Dispute opens a dispute on the record.
func (d *DepositRecord) Dispute() error {
	if d.State == DisputeStateDisputed {
		return ErrAlreadyDisputed
	}
	d.State = DisputeStateDisputed
	return nil
}

// Resolve closes an open dispute.
func (d *DepositRecord) Resolve() error {
	if d.State != DisputeStateDisputed {
		return ErrNotDisputed
	}
	d.State = DisputeStateNotDisputed
	return nil
}

// ValidateChargeback checks that the record can be charged back.
// A charged-back record keeps the disputed state; its account is locked afterwards.
func (d *DepositRecord) ValidateChargeback() error {
	if d.State != DisputeStateDisputed {
		return ErrNotDisputed
	}
	return nil
}
