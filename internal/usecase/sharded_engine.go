package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iho/txengine/internal/domain"
)

// cancelCheckInterval is how many transactions a shard applies between context checks.
const cancelCheckInterval = 1024

// ShardedEngine partitions a materialized transaction sequence by client id
// and applies each partition on its own Engine concurrently.
// Each shard owns its accounts and deposit records exclusively.
type ShardedEngine struct {
	shards []*Engine
}

// NewShardedEngine creates an engine with n shards. n below one means one shard.
func NewShardedEngine(n int) *ShardedEngine {
	if n < 1 {
		n = 1
	}

	shards := make([]*Engine, n)
	for i := range shards {
		shards[i] = NewEngine()
	}

	return &ShardedEngine{shards: shards}
}

// Shards returns the number of shards.
func (s *ShardedEngine) Shards() int {
	return len(s.shards)
}

func (s *ShardedEngine) shardFor(id domain.ClientID) int {
	return int(id) % len(s.shards)
}

// ProcessAll applies txs and returns their outcomes in input order.
// Transactions of one client keep their relative order.
func (s *ShardedEngine) ProcessAll(ctx context.Context, txs []domain.Transaction) ([]Outcome, error) {
	partitions := make([][]int, len(s.shards))
	for i, tx := range txs {
		shard := s.shardFor(tx.ClientID)
		partitions[shard] = append(partitions[shard], i)
	}

	outcomes := make([]Outcome, len(txs))

	g, gctx := errgroup.WithContext(ctx)
	for shard, indexes := range partitions {
		engine := s.shards[shard]
		g.Go(func() error {
			for n, i := range indexes {
				if n%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				outcomes[i] = engine.Apply(txs[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

// Accounts merges the account views of all shards.
func (s *ShardedEngine) Accounts() map[domain.ClientID]domain.Account {
	out := make(map[domain.ClientID]domain.Account)
	for _, shard := range s.shards {
		for id, account := range shard.Accounts() {
			out[id] = account
		}
	}
	return out
}

// Snapshot returns every known account ordered by client id.
func (s *ShardedEngine) Snapshot() []domain.Account {
	return sortedAccounts(s.Accounts())
}

// Deposit looks up a deposit record on the shard owning its client.
func (s *ShardedEngine) Deposit(key domain.DepositKey) (domain.DepositRecord, bool) {
	return s.shards[s.shardFor(key.ClientID)].Deposit(key)
}
