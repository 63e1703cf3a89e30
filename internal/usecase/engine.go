package usecase

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

// Outcome reasons used as metric labels and in debug logs.
const (
	ReasonAccountLocked     = "account_locked"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonDepositNotFound   = "deposit_not_found"
	ReasonAlreadyDisputed   = "already_disputed"
	ReasonNotDisputed       = "not_disputed"
	ReasonInvalidAmount     = "invalid_amount"
	ReasonUnknownKind       = "unknown_kind"
	ReasonOther             = "other"
)

// Outcome describes the effect of applying one transaction.
// A transaction whose preconditions do not hold leaves the engine untouched and
// carries the violated precondition in Err.
type Outcome struct {
	Err    error
	Amount decimal.Decimal
}

// Applied reports whether the transaction changed the engine state.
func (o Outcome) Applied() bool {
	return o.Err == nil
}

// Reason returns a stable label for an ignored transaction.
func (o Outcome) Reason() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, domain.ErrAccountLocked):
		return ReasonAccountLocked
	case errors.Is(o.Err, domain.ErrInsufficientFunds):
		return ReasonInsufficientFunds
	case errors.Is(o.Err, domain.ErrDepositNotFound):
		return ReasonDepositNotFound
	case errors.Is(o.Err, domain.ErrAlreadyDisputed):
		return ReasonAlreadyDisputed
	case errors.Is(o.Err, domain.ErrNotDisputed):
		return ReasonNotDisputed
	case errors.Is(o.Err, domain.ErrInvalidAmount):
		return ReasonInvalidAmount
	case errors.Is(o.Err, domain.ErrUnknownKind):
		return ReasonUnknownKind
	default:
		return ReasonOther
	}
}

func applied(amount decimal.Decimal) Outcome {
	return Outcome{Amount: amount}
}

func ignored(err error) Outcome {
	return Outcome{Err: err, Amount: decimal.Zero}
}

// Engine applies transactions to client accounts in input order.
// It is not safe for concurrent use.
type Engine struct {
	accounts map[domain.ClientID]*domain.Account
	deposits map[domain.DepositKey]*domain.DepositRecord
}

// NewEngine creates an engine with no accounts and no deposit history.
func NewEngine() *Engine {
	return &Engine{
		accounts: make(map[domain.ClientID]*domain.Account),
		deposits: make(map[domain.DepositKey]*domain.DepositRecord),
	}
}

// Process consumes one transaction. Transactions that cannot apply have no effect.
func (e *Engine) Process(tx domain.Transaction) {
	_ = e.Apply(tx)
}

// Apply consumes one transaction and reports what happened to it.
func (e *Engine) Apply(tx domain.Transaction) Outcome {
	// The account exists from the first reference on, even if nothing applies.
	account := e.account(tx.ClientID)

	if err := account.ValidateMutation(); err != nil {
		return ignored(err)
	}

	switch tx.Kind {
	case domain.KindDeposit:
		return e.deposit(account, tx)
	case domain.KindWithdrawal:
		return e.withdraw(account, tx)
	case domain.KindDispute:
		return e.dispute(account, tx)
	case domain.KindResolve:
		return e.resolve(account, tx)
	case domain.KindChargeback:
		return e.chargeback(account, tx)
	default:
		return ignored(domain.ErrUnknownKind)
	}
}

func (e *Engine) deposit(account *domain.Account, tx domain.Transaction) Outcome {
	account.Deposit(tx.Amount)
	e.deposits[tx.Key()] = domain.NewDepositRecord(tx.Key(), tx.Amount)

	return applied(tx.Amount)
}

func (e *Engine) withdraw(account *domain.Account, tx domain.Transaction) Outcome {
	if err := account.Withdraw(tx.Amount); err != nil {
		return ignored(err)
	}

	return applied(tx.Amount)
}

func (e *Engine) dispute(account *domain.Account, tx domain.Transaction) Outcome {
	record, ok := e.deposits[tx.Key()]
	if !ok {
		return ignored(domain.ErrDepositNotFound)
	}

	if err := record.Dispute(); err != nil {
		return ignored(err)
	}
	account.Hold(record.Amount)

	return applied(record.Amount)
}

func (e *Engine) resolve(account *domain.Account, tx domain.Transaction) Outcome {
	record, ok := e.deposits[tx.Key()]
	if !ok {
		return ignored(domain.ErrDepositNotFound)
	}

	if err := record.Resolve(); err != nil {
		return ignored(err)
	}
	account.Release(record.Amount)

	return applied(record.Amount)
}

func (e *Engine) chargeback(account *domain.Account, tx domain.Transaction) Outcome {
	record, ok := e.deposits[tx.Key()]
	if !ok {
		return ignored(domain.ErrDepositNotFound)
	}

	if err := record.ValidateChargeback(); err != nil {
		return ignored(err)
	}
	account.Chargeback(record.Amount)

	return applied(record.Amount)
}

func (e *Engine) account(id domain.ClientID) *domain.Account {
	account, ok := e.accounts[id]
	if !ok {
		account = domain.NewAccount(id)
		e.accounts[id] = account
	}
	return account
}

// Accounts returns a copy of every known account keyed by client id.
func (e *Engine) Accounts() map[domain.ClientID]domain.Account {
	out := make(map[domain.ClientID]domain.Account, len(e.accounts))
	for id, account := range e.accounts {
		out[id] = *account
	}
	return out
}

// Snapshot returns every known account ordered by client id.
func (e *Engine) Snapshot() []domain.Account {
	return sortedAccounts(e.Accounts())
}

// Deposit returns a copy of the deposit record stored under key.
func (e *Engine) Deposit(key domain.DepositKey) (domain.DepositRecord, bool) {
	record, ok := e.deposits[key]
	if !ok {
		return domain.DepositRecord{}, false
	}
	return *record, true
}

func sortedAccounts(accounts map[domain.ClientID]domain.Account) []domain.Account {
	out := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
