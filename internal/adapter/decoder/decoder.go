// Package decoder reads transactions from CSV input.
package decoder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/txengine/internal/domain"
)

// Decoder errors.
var (
	ErrInvalidHeader = errors.New("invalid header")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidClient = errors.New("invalid client id")
	ErrInvalidTx     = errors.New("invalid transaction id")
	ErrMissingAmount = errors.New("missing amount")
	ErrInvalidAmount = errors.New("invalid amount")
)

var expectedHeader = []string{"type", "client", "tx"}

const byteOrderMark = "\ufeff"

const (
	colType = iota
	colClient
	colTx
	colAmount
)

// Decoder yields one transaction per CSV record.
// The first record is the header `type,client,tx,amount`. Records may omit the
// trailing amount column.
type Decoder struct {
	r          *csv.Reader
	headerRead bool
}

// New creates a Decoder reading from r.
func New(r io.Reader) *Decoder {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Decoder{r: cr}
}

// Next returns the next transaction, or io.EOF once the input is exhausted.
func (d *Decoder) Next() (domain.Transaction, error) {
	if !d.headerRead {
		if err := d.readHeader(); err != nil {
			return domain.Transaction{}, err
		}
		d.headerRead = true
	}

	record, err := d.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Transaction{}, io.EOF
		}
		return domain.Transaction{}, fmt.Errorf("read record: %w", err)
	}

	line, _ := d.r.FieldPos(0)
	tx, err := Parse(record)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("line %d: %w", line, err)
	}
	return tx, nil
}

func (d *Decoder) readHeader() error {
	header, err := d.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}

	if len(header) < len(expectedHeader) {
		return fmt.Errorf("%w: %q", ErrInvalidHeader, strings.Join(header, ","))
	}
	for i, name := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidHeader, i+1, header[i], name)
		}
	}
	return nil
}

// Parse converts one CSV record into a transaction.
func Parse(record []string) (domain.Transaction, error) {
	kind, err := domain.ParseKind(field(record, colType))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidType, err)
	}

	client, err := strconv.ParseUint(field(record, colClient), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidClient, field(record, colClient))
	}

	id, err := strconv.ParseUint(field(record, colTx), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidTx, field(record, colTx))
	}

	tx := domain.Transaction{
		TxID:     domain.TxID(id),
		ClientID: domain.ClientID(client),
		Kind:     kind,
		Amount:   decimal.Zero,
	}

	if !kind.HasAmount() {
		return tx, nil
	}

	raw := field(record, colAmount)
	if raw == "" {
		return domain.Transaction{}, fmt.Errorf("%w: %s tx %d", ErrMissingAmount, kind, id)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	tx.Amount = amount
	return tx, nil
}

// field returns the trimmed value of column i, or "" when the record is shorter.
func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
