package usecase

import (
	"context"

	"github.com/iho/txengine/internal/domain"
)

// AccountUseCase serves read-only queries over the accounts of a finished run.
type AccountUseCase struct {
	report         *Report
	journal        *Journal
	index          map[domain.ClientID]int
	reconciliation *ReconciliationUseCase
}

// NewAccountUseCase creates a new AccountUseCase over result.
func NewAccountUseCase(result *RunResult, reconciliation *ReconciliationUseCase) *AccountUseCase {
	index := make(map[domain.ClientID]int, len(result.Report.Accounts))
	for i, account := range result.Report.Accounts {
		index[account.ID] = i
	}

	return &AccountUseCase{
		report:         result.Report,
		journal:        result.Journal,
		index:          index,
		reconciliation: reconciliation,
	}
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts ordered by client id with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]domain.Account, int, error) {
	if input.Limit <= 0 {
		input.Limit = DefaultListLimit
	}
	if input.Limit > MaxListLimit {
		input.Limit = MaxListLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	accounts := uc.report.Accounts
	total := len(accounts)
	if input.Offset >= total {
		return []domain.Account{}, total, nil
	}

	end := min(input.Offset+input.Limit, total)
	page := make([]domain.Account, end-input.Offset)
	copy(page, accounts[input.Offset:end])

	return page, total, nil
}

// GetAccount retrieves an account by client id.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id domain.ClientID) (domain.Account, error) {
	i, ok := uc.index[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return uc.report.Accounts[i], nil
}

// Reconcile reconciles every account of the run against its journal.
func (uc *AccountUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	return uc.reconciliation.Reconcile(uc.report.Accounts, uc.journal), nil
}

// RunID returns the id of the run backing this use case.
func (uc *AccountUseCase) RunID() string {
	return uc.report.RunID
}
