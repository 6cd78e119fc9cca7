package ledger

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/suresportpicks/picks-service/internal/storage"
	"github.com/suresportpicks/picks-service/internal/utils"
)

// Event is the debit request published when a withdrawal completes.
type Event struct {
	WithdrawalID string          `json:"withdrawalId"`
	UserID       string          `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
}

// DebitPublisher is the handler-facing side of the ledger pipeline.
type DebitPublisher interface {
	AddDebit(ctx context.Context, event Event) error
}

type Ledger struct {
	log     *zerolog.Logger
	writer  *kafka.Writer
	reader  *kafka.Reader
	storage storage.Storage
}

func NewLedger(writer *kafka.Writer, reader *kafka.Reader, log *zerolog.Logger) *Ledger {
	return &Ledger{
		log:     log,
		writer:  writer,
		reader:  reader,
		storage: nil,
	}
}

func (ld *Ledger) WithStorage(st storage.Storage) *Ledger {
	ld.storage = st

	return ld
}

// AddDebit publishes the completed withdrawal to the ledger topic. The debit
// is realized asynchronously by ProcessDebits.
func (ld *Ledger) AddDebit(ctx context.Context, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		ld.log.Error().Err(err).Msg("Error marshalling debit event for Kafka")

		return err
	}

	err = ld.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.WithdrawalID),
		Value: jsonData,
	})
	if err != nil {
		return err
	}

	ld.log.Info().Interface("event", event).Msg("Debit event sent to Kafka")

	return nil
}

// ProcessDebits consumes debit events and records them in the transactions
// ledger. Replayed events are skipped so a completed withdrawal is never
// debited twice.
func (ld *Ledger) ProcessDebits(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ld.log.Info().Msg("Stopping ledger processing")

			return
		default:
			msg, err := ld.reader.FetchMessage(ctx)
			if err != nil {
				ld.log.Error().Err(err).Msg("error reading message")

				continue
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				ld.log.Error().Err(err).Msg("error unmarshalling debit event from Kafka")

				_ = ld.reader.CommitMessages(ctx, msg)

				continue
			}

			ld.log.Info().Interface("event", event).Msg("Processing debit event")

			operation := func() error {
				recorded, err := ld.storage.HasCompletedDebit(ctx, event.WithdrawalID)
				if err != nil {
					return err
				}

				if recorded {
					ld.log.Info().Str("withdrawalId", event.WithdrawalID).Msg("Debit already recorded, skipping")

					return nil
				}

				return ld.storage.InsertDebit(ctx, event.UserID, event.WithdrawalID, event.Amount)
			}

			if err := utils.RetryOperation(ctx, operation); err != nil {
				ld.log.Error().Err(err).Str("withdrawalId", event.WithdrawalID).Msg("error processing debit event")

				continue
			}

			_ = ld.reader.CommitMessages(ctx, msg)
			ld.log.Info().Str("withdrawalId", event.WithdrawalID).Msg("Debit recorded in ledger")
		}
	}
}
