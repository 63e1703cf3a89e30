package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when account totals do not match the journal.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: account totals do not match accepted movements")
)

// JournalEntry sums the accepted movements of one client.
type JournalEntry struct {
	Deposited   decimal.Decimal
	Withdrawn   decimal.Decimal
	ChargedBack decimal.Decimal
}

// Expected returns the total the account should hold.
func (e JournalEntry) Expected() decimal.Decimal {
	return e.Deposited.Sub(e.Withdrawn).Sub(e.ChargedBack)
}

// Journal accumulates applied movements per client.
type Journal struct {
	entries map[domain.ClientID]*JournalEntry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{entries: make(map[domain.ClientID]*JournalEntry)}
}

// Record adds an applied transaction to the journal. Ignored transactions are skipped.
func (j *Journal) Record(tx domain.Transaction, outcome Outcome) {
	if !outcome.Applied() {
		return
	}

	entry, ok := j.entries[tx.ClientID]
	if !ok {
		entry = &JournalEntry{
			Deposited:   decimal.Zero,
			Withdrawn:   decimal.Zero,
			ChargedBack: decimal.Zero,
		}
		j.entries[tx.ClientID] = entry
	}

	switch tx.Kind {
	case domain.KindDeposit:
		entry.Deposited = entry.Deposited.Add(outcome.Amount)
	case domain.KindWithdrawal:
		entry.Withdrawn = entry.Withdrawn.Add(outcome.Amount)
	case domain.KindChargeback:
		entry.ChargedBack = entry.ChargedBack.Add(outcome.Amount)
	}
}

// Entry returns the movements recorded for a client.
func (j *Journal) Entry(id domain.ClientID) JournalEntry {
	entry, ok := j.entries[id]
	if !ok {
		return JournalEntry{Deposited: decimal.Zero, Withdrawn: decimal.Zero, ChargedBack: decimal.Zero}
	}
	return *entry
}

// ReconciliationUseCase checks final account states against the journal.
type ReconciliationUseCase struct {
	now func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase() *ReconciliationUseCase {
	return &ReconciliationUseCase{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	ClientID        domain.ClientID
	RecordedTotal   decimal.Decimal
	CalculatedTotal decimal.Decimal
	Difference      decimal.Decimal
	Balanced        bool
	NonNegativeHold bool
	IsReconciled    bool
	LastChecked     time.Time
}

// ReconcileAccount compares one account with its journal entry.
func (uc *ReconciliationUseCase) ReconcileAccount(account domain.Account, entry JournalEntry) *ReconciliationResult {
	calculated := entry.Expected()
	balanced := account.IsBalanced()
	nonNegativeHold := !account.Held.IsNegative()

	return &ReconciliationResult{
		ClientID:        account.ID,
		RecordedTotal:   account.Total,
		CalculatedTotal: calculated,
		Difference:      account.Total.Sub(calculated),
		Balanced:        balanced,
		NonNegativeHold: nonNegativeHold,
		IsReconciled:    balanced && nonNegativeHold && account.Total.Equal(calculated),
		LastChecked:     uc.now(),
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// Reconcile generates a report over every account of a run.
func (uc *ReconciliationUseCase) Reconcile(accounts []domain.Account, journal *Journal) *ReconciliationReport {
	report := &ReconciliationReport{
		TotalAccounts: len(accounts),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     uc.now(),
	}

	for _, account := range accounts {
		result := uc.ReconcileAccount(account, journal.Entry(account.ID))
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	report.LedgerConsistent = uc.CheckLedgerConsistency(accounts, journal) == nil

	return report
}

// CheckLedgerConsistency verifies that the sum of account totals equals the sum of
// accepted deposits minus withdrawals minus chargebacks.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(accounts []domain.Account, journal *Journal) error {
	recorded := decimal.Zero
	calculated := decimal.Zero

	for _, account := range accounts {
		recorded = recorded.Add(account.Total)
		calculated = calculated.Add(journal.Entry(account.ID).Expected())
	}

	if !recorded.Equal(calculated) {
		return fmt.Errorf(
			"%w: recorded=%s calculated=%s difference=%s",
			ErrInconsistentLedger,
			recorded.String(),
			calculated.String(),
			recorded.Sub(calculated).String(),
		)
	}

	return nil
}
