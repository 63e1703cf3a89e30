package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/infrastructure/idgen"
	infrapg "github.com/iho/txengine/internal/infrastructure/postgres"
)

func TestAccountReportRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := infrapg.RunMigrations(databaseURL, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := infrapg.NewPool(ctx, databaseURL, 2, 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	repo := NewAccountReportRepository(pool)
	report := sampleReport()
	report.RunID = idgen.NewULIDGenerator().Generate()

	// a second write of the same run must upsert, not fail
	for i := 0; i < 2; i++ {
		if err := repo.WriteAccounts(ctx, report); err != nil {
			t.Fatalf("write #%d: %v", i+1, err)
		}
	}

	accounts, err := repo.ListByRun(ctx, report.RunID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if !accounts[1].Available.Equal(decimal.RequireFromString("-0.25")) || !accounts[1].Locked {
		t.Fatalf("unexpected account %+v", accounts[1])
	}

	if _, err := repo.ListByRun(ctx, "missing-run"); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown run, got %v", err)
	}
}
