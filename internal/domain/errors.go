package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountLocked     = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrInvalidAmount     = errors.New("amount must not be negative")

	// Dispute errors
	ErrDepositNotFound = errors.New("deposit not found")
	ErrAlreadyDisputed = errors.New("deposit is already disputed")
	ErrNotDisputed     = errors.New("deposit is not disputed")

	// Transaction errors
	ErrUnknownKind = errors.New("unknown transaction kind")
)
