// Package kafka publishes account reports to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iho/txengine/internal/adapter/reporter"
	"github.com/iho/txengine/internal/usecase"
)

// HeaderRunID carries the run id on every message.
const HeaderRunID = "run_id"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AccountMessage is the value of one published message.
type AccountMessage struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	reporter.AccountRow
}

// Publisher implements usecase.AccountSink with one message per account,
// keyed by client id so that a client's updates share a partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewPublisher creates a Publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return newPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, topic)
}

func newPublisherWithWriter(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

func (p *Publisher) Name() string { return "kafka" }

// WriteAccounts publishes every account of report in one batch.
func (p *Publisher) WriteAccounts(ctx context.Context, report *usecase.Report) error {
	if len(report.Accounts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(report.Accounts))
	for _, account := range report.Accounts {
		value, err := json.Marshal(AccountMessage{
			RunID:       report.RunID,
			GeneratedAt: report.GeneratedAt,
			AccountRow:  reporter.RowFromAccount(account),
		})
		if err != nil {
			return fmt.Errorf("marshal account %d: %w", account.ID, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(account.ID), 10)),
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderRunID, Value: []byte(report.RunID)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
