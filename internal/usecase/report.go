package usecase

import (
	"time"

	"github.com/iho/txengine/internal/domain"
)

// Report is the final account state of one processing run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Accounts    []domain.Account
}

// LockedAccounts counts locked accounts in the report.
func (r *Report) LockedAccounts() int {
	n := 0
	for _, account := range r.Accounts {
		if account.Locked {
			n++
		}
	}
	return n
}

// RunResult is the outcome of ProcessUseCase.Run.
type RunResult struct {
	Report    *Report
	Journal   *Journal
	Processed int
	Ignored   int
	Duration  time.Duration
}
