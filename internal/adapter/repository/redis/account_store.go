package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// Hash fields of a stored account.
const (
	fieldAvailable = "available"
	fieldHeld      = "held"
	fieldTotal     = "total"
	fieldLocked    = "locked"
	fieldRunID     = "run_id"
)

// AccountStore implements usecase.AccountSink using Redis.
// Each account is a hash under <prefix>account:<id>; the set <prefix>accounts
// holds every written client id and <prefix>run:latest the last run id.
type AccountStore struct {
	client *redis.Client
	prefix string
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(client *redis.Client, prefix string) *AccountStore {
	return &AccountStore{
		client: client,
		prefix: prefix,
	}
}

func (s *AccountStore) Name() string { return "redis" }

func (s *AccountStore) accountKey(id domain.ClientID) string {
	return s.prefix + "account:" + strconv.FormatUint(uint64(id), 10)
}

func (s *AccountStore) indexKey() string { return s.prefix + "accounts" }

func (s *AccountStore) latestRunKey() string { return s.prefix + "run:latest" }

// WriteAccounts stores every account of report in a single MULTI/EXEC.
func (s *AccountStore) WriteAccounts(ctx context.Context, report *usecase.Report) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		members := make([]any, 0, len(report.Accounts))
		for _, account := range report.Accounts {
			pipe.HSet(ctx, s.accountKey(account.ID), map[string]any{
				fieldAvailable: domain.FormatAmount(account.Available),
				fieldHeld:      domain.FormatAmount(account.Held),
				fieldTotal:     domain.FormatAmount(account.Total),
				fieldLocked:    strconv.FormatBool(account.Locked),
				fieldRunID:     report.RunID,
			})
			members = append(members, strconv.FormatUint(uint64(account.ID), 10))
		}
		if len(members) > 0 {
			pipe.SAdd(ctx, s.indexKey(), members...)
		}
		pipe.Set(ctx, s.latestRunKey(), report.RunID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}
	return nil
}

// GetAccount reads one stored account and the run id that wrote it.
func (s *AccountStore) GetAccount(ctx context.Context, id domain.ClientID) (domain.Account, string, error) {
	values, err := s.client.HGetAll(ctx, s.accountKey(id)).Result()
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("get account %d: %w", id, err)
	}
	if len(values) == 0 {
		return domain.Account{}, "", domain.ErrAccountNotFound
	}

	account := domain.Account{ID: id}
	parse := func(field string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(values[field])
		if err != nil {
			return decimal.Zero, fmt.Errorf("account %d field %s: %w", id, field, err)
		}
		return d, nil
	}

	if account.Available, err = parse(fieldAvailable); err != nil {
		return domain.Account{}, "", err
	}
	if account.Held, err = parse(fieldHeld); err != nil {
		return domain.Account{}, "", err
	}
	if account.Total, err = parse(fieldTotal); err != nil {
		return domain.Account{}, "", err
	}
	if account.Locked, err = strconv.ParseBool(values[fieldLocked]); err != nil {
		return domain.Account{}, "", fmt.Errorf("account %d field %s: %w", id, fieldLocked, err)
	}

	return account, values[fieldRunID], nil
}

// ClientIDs returns every client id written so far.
func (s *AccountStore) ClientIDs(ctx context.Context) ([]domain.ClientID, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	ids := make([]domain.ClientID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid client id %q in index: %w", m, err)
		}
		ids = append(ids, domain.ClientID(id))
	}
	return ids, nil
}

// LatestRunID returns the id of the last run written, or "" if none.
func (s *AccountStore) LatestRunID(ctx context.Context) (string, error) {
	runID, err := s.client.Get(ctx, s.latestRunKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get latest run: %w", err)
	}
	return runID, nil
}
