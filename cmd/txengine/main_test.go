package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/txengine/internal/adapter/decoder"
	"github.com/iho/txengine/internal/adapter/reporter"
	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/infrastructure/config"
	"github.com/iho/txengine/internal/usecase"
)

const sampleInput = `type, client, tx, amount
deposit, 1, 1, 1.0
deposit, 2, 2, 2.0
deposit, 1, 3, 2.0
withdrawal, 1, 4, 1.5
withdrawal, 2, 5, 3.0
`

const sampleOutput = "client,available,held,total,locked\n" +
	"1,1.5000,0.0000,1.5000,false\n" +
	"2,2.0000,0.0000,2.0000,false\n"

func testConfig() *config.Config {
	return &config.Config{
		OutputFormat:        "csv",
		Shards:              1,
		RedisKeyPrefix:      "txengine:",
		SinkMaxRetries:      0,
		HTTPPort:            "0",
		HTTPShutdownTimeout: time.Second,
	}
}

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	cmd := newRootCmd(&app{cfg: cfg, logger: zerolog.Nop(), stdout: &stdout})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRun_WritesCSVToStdout(t *testing.T) {
	out, err := execute(t, testConfig(), writeInput(t, sampleInput))
	require.NoError(t, err)
	assert.Equal(t, sampleOutput, out)
}

func TestRun_ShardedMatchesSingle(t *testing.T) {
	input := writeInput(t, sampleInput+"dispute,1,1,\ndeposit,3,6,4.25\nchargeback,1,1,\ndeposit,1,7,9\n")

	single, err := execute(t, testConfig(), input)
	require.NoError(t, err)

	sharded, err := execute(t, testConfig(), "--shards", "4", input)
	require.NoError(t, err)

	assert.Equal(t, single, sharded)
	assert.Contains(t, single, "1,0.5000,0.0000,0.5000,true\n")
	assert.Contains(t, single, "3,4.2500,0.0000,4.2500,false\n")
}

func TestRun_JSONToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.json")

	out, err := execute(t, testConfig(), "--format", "json", "--output", output, writeInput(t, sampleInput))
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var report struct {
		RunID    string               `json:"run_id"`
		Accounts []reporter.AccountRow `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Accounts, 2)
	assert.Equal(t, "1.5000", report.Accounts[0].Total)
}

func TestRun_FormatFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.OutputFormat = "json"

	out, err := execute(t, cfg, writeInput(t, sampleInput))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
}

func TestRun_DecodeErrorWritesNothing(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.csv")

	out, err := execute(t, testConfig(), "--output", output, writeInput(t, sampleInput+"refund, 1, 9, 1.0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, decoder.ErrInvalidType)
	assert.Empty(t, out)

	_, statErr := os.Stat(output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "output file must not be created")
}

func TestRun_InvalidArguments(t *testing.T) {
	input := writeInput(t, sampleInput)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown format", []string{"--format", "xml", input}, reporter.ErrUnknownFormat},
		{"unknown sink", []string{"--sink", "s3", input}, errUnknownSink},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.csv")}, os.ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, testConfig(), tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out)
		})
	}

	_, err := execute(t, testConfig())
	assert.Error(t, err, "input path is required")
}

func TestRun_Reconcile(t *testing.T) {
	input := writeInput(t, sampleInput+"dispute,2,2,\nchargeback,2,2,\n")

	out, err := execute(t, testConfig(), "--reconcile", input)
	require.NoError(t, err)
	assert.Contains(t, out, "2,0.0000,0.0000,0.0000,true\n")
}

func TestRun_RedisSink(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.RedisKeyPrefix = "test:"

	out, err := execute(t, cfg, "--sink", "redis", writeInput(t, sampleInput))
	require.NoError(t, err)
	assert.Equal(t, sampleOutput, out)

	assert.Equal(t, "1.5000", mr.HGet("test:account:1", "total"))
	assert.Equal(t, "false", mr.HGet("test:account:2", "locked"))

	members, err := mr.Members("test:accounts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
}

func TestRun_SinkUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"

	out, err := execute(t, cfg, "--sink", "redis", writeInput(t, sampleInput))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open redis sink")
	assert.Equal(t, sampleOutput, out, "the report is written before sinks are published")
}

func TestReconcile_FailsOnDiscrepancy(t *testing.T) {
	a := &app{cfg: testConfig(), logger: zerolog.Nop()}

	account := domain.NewAccount(7)
	account.Deposit(decimal.RequireFromString("5"))

	err := a.reconcile(&usecase.RunResult{
		Report:  &usecase.Report{RunID: "tampered", Accounts: []domain.Account{*account}},
		Journal: usecase.NewJournal(),
	})
	assert.ErrorIs(t, err, usecase.ErrInconsistentLedger)
}

func TestMigrate_RejectsUnknownDirection(t *testing.T) {
	_, err := execute(t, testConfig(), "migrate", "sideways")
	assert.Error(t, err)

	_, err = execute(t, testConfig(), "migrate")
	assert.Error(t, err)
}

func TestValidateSinks(t *testing.T) {
	assert.NoError(t, validateSinks(nil))
	assert.NoError(t, validateSinks([]string{"redis", "postgres", "kafka"}))
	assert.ErrorIs(t, validateSinks([]string{"redis", "mongo"}), errUnknownSink)
}

func TestNewApp(t *testing.T) {
	t.Setenv("SHARDS", "3")
	t.Setenv("OUTPUT_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "warn")

	var stdout bytes.Buffer
	a, err := newApp(&stdout)
	require.NoError(t, err)

	assert.Equal(t, 3, a.cfg.Shards)
	assert.Equal(t, "json", a.cfg.OutputFormat)
	assert.Equal(t, zerolog.WarnLevel, a.logger.GetLevel())
	assert.Same(t, &stdout, a.stdout)
}

func TestNewApp_InvalidConfig(t *testing.T) {
	t.Setenv("SHARDS", "many")

	a, err := newApp(&bytes.Buffer{})
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "load configuration")
}
