// Package reporter renders the final account report.
package reporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/iho/txengine/internal/domain"
	"github.com/iho/txengine/internal/usecase"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned by New for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

var csvHeader = []string{"client", "available", "held", "total", "locked"}

// Reporter writes a report to an output stream.
type Reporter interface {
	Name() string
	WriteAccounts(ctx context.Context, report *usecase.Report) error
}

// New returns the reporter for format writing to w.
func New(format string, w io.Writer) (Reporter, error) {
	switch format {
	case FormatCSV, "":
		return NewCSV(w), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// CSV writes one row per account under the header client,available,held,total,locked.
type CSV struct {
	w io.Writer
}

// NewCSV creates a CSV reporter.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

func (r *CSV) Name() string { return FormatCSV }

// WriteAccounts writes report in client id order.
func (r *CSV) WriteAccounts(_ context.Context, report *usecase.Report) error {
	cw := csv.NewWriter(r.w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, account := range report.Accounts {
		row := []string{
			strconv.FormatUint(uint64(account.ID), 10),
			domain.FormatAmount(account.Available),
			domain.FormatAmount(account.Held),
			domain.FormatAmount(account.Total),
			strconv.FormatBool(account.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write account %d: %w", account.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// AccountRow is the serialized form of one account.
type AccountRow struct {
	Client    domain.ClientID `json:"client"`
	Available string          `json:"available"`
	Held      string          `json:"held"`
	Total     string          `json:"total"`
	Locked    bool            `json:"locked"`
}

// RowFromAccount converts an account to its serialized form.
func RowFromAccount(a domain.Account) AccountRow {
	return AccountRow{
		Client:    a.ID,
		Available: domain.FormatAmount(a.Available),
		Held:      domain.FormatAmount(a.Held),
		Total:     domain.FormatAmount(a.Total),
		Locked:    a.Locked,
	}
}

type jsonReport struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Accounts    []AccountRow `json:"accounts"`
}

// JSON writes the report as a single indented JSON document.
type JSON struct {
	w io.Writer
}

// NewJSON creates a JSON reporter.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

func (r *JSON) Name() string { return FormatJSON }

func (r *JSON) WriteAccounts(_ context.Context, report *usecase.Report) error {
	out := jsonReport{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Accounts:    make([]AccountRow, 0, len(report.Accounts)),
	}
	for _, account := range report.Accounts {
		out.Accounts = append(out.Accounts, RowFromAccount(account))
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
