package dto

import (
	"time"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Client    domain.ClientID `json:"client"`
	Available string          `json:"available"`
	Held      string          `json:"held"`
	Total     string          `json:"total"`
	Locked    bool            `json:"locked"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a domain.Account) *AccountResponse {
	return &AccountResponse{
		Client:    a.ID,
		Available: domain.FormatAmount(a.Available),
		Held:      domain.FormatAmount(a.Held),
		Total:     domain.FormatAmount(a.Total),
		Locked:    a.Locked,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	RunID    string             `json:"run_id"`
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// DiscrepancyResponse describes one account that failed reconciliation.
type DiscrepancyResponse struct {
	Client          domain.ClientID `json:"client"`
	RecordedTotal   string          `json:"recorded_total"`
	CalculatedTotal string          `json:"calculated_total"`
	Difference      string          `json:"difference"`
	Balanced        bool            `json:"balanced"`
	NonNegativeHold bool            `json:"non_negative_hold"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	RunID              string                 `json:"run_id"`
	Status             string                 `json:"status"`
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	LedgerConsistent   bool                   `json:"ledger_consistent"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation report to response.
func ReconciliationFromUseCase(runID string, r *usecase.ReconciliationReport) *ReconciliationResponse {
	status := "reconciled"
	if len(r.Discrepancies) > 0 || !r.LedgerConsistent {
		status = "discrepancies"
	}

	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			Client:          d.ClientID,
			RecordedTotal:   domain.FormatAmount(d.RecordedTotal),
			CalculatedTotal: domain.FormatAmount(d.CalculatedTotal),
			Difference:      domain.FormatAmount(d.Difference),
			Balanced:        d.Balanced,
			NonNegativeHold: d.NonNegativeHold,
		}
	}

	return &ReconciliationResponse{
		RunID:              runID,
		Status:             status,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
