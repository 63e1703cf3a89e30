package domain

import (
	"github.com/shopspring/decimal"
)

// ClientID identifies a client account.
type ClientID uint16

// Account represents the balance state of a single client.
// Total is derived from Available and Held by every mutation and is never set on its own.
type Account struct {
	ID        ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// NewAccount returns an unlocked account with zero balances.
func NewAccount(id ClientID) *Account {
	return &Account{
		ID:        id,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}

// ValidateMutation checks that the account still accepts balance changes.
func (a *Account) ValidateMutation() error {
	if a.Locked {
		return ErrAccountLocked
	}
	return nil
}

// ValidateDebit checks if available funds cover amount. It repeats the lock
// check so that it is safe to call on its own.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if err := a.ValidateMutation(); err != nil {
		return err
	}
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// Deposit credits amount to available funds.
func (a *Account) Deposit(amount decimal.Decimal) {
	a.Available = a.Available.Add(amount)
	a.Total = a.Total.Add(amount)
}

// Withdraw debits amount from available funds.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if err := a.ValidateDebit(amount); err != nil {
		return err
	}
	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
	return nil
}

// Hold moves amount from available to held funds. Available may go negative
// when the disputed deposit was already spent.
func (a *Account) Hold(amount decimal.Decimal) {
	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)
}

// Release moves amount from held back to available funds.
func (a *Account) Release(amount decimal.Decimal) {
	a.Available = a.Available.Add(amount)
	a.Held = a.Held.Sub(amount)
}

// Chargeback removes held funds from the account and locks it.
func (a *Account) Chargeback(amount decimal.Decimal) {
	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
}

// IsBalanced reports whether Total equals Available plus Held.
func (a *Account) IsBalanced() bool {
	return a.Available.Add(a.Held).Equal(a.Total)
}
