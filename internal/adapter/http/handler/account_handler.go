package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/txengine/internal/adapter/http/dto"
	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetAccount(ctx context.Context, id domain.ClientID) (domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]domain.Account, int, error)
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
	RunID() string
}

// AccountHandler serves the accounts of a finished run.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Get retrieves an account by client id.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing client ID", "")
		return
	}

	id, err := parseClientID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client ID", err.Error())
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts ordered by client id.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", usecase.DefaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	accounts, total, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		RunID:    h.accountUC.RunID(),
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(total),
		Limit:    limit,
		Offset:   offset,
	})
}

// Reconcile reports whether every account matches its accepted movements.
// It answers 409 when discrepancies exist.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.accountUC.Reconcile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reconcile", err.Error())
		return
	}

	resp := dto.ReconciliationFromUseCase(h.accountUC.RunID(), report)
	status := http.StatusOK
	if resp.Status != "reconciled" {
		status = http.StatusConflict
	}

	writeJSON(w, status, resp)
}
