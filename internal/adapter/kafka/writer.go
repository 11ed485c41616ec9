package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-warning-service/internal/config"
	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// Writer publishes warning boards to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one board. Boards for the same source selection share a
// key and therefore a partition, so consumers see them in order.
func (w *Writer) Publish(ctx context.Context, key string, board domain.Board) error {
	msg, err := serializeToMessage(key, board)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write board to kafka: %w", err)
	}
	w.logger.Debug("board published", "topic", w.writer.Topic, "cycle_id", board.CycleID, "warnings", board.Len())
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Board into a Kafka message.
func serializeToMessage(key string, board domain.Board) (kafkago.Message, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize warning board: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generated_at", Value: []byte(board.GeneratedAt.Format(time.RFC3339))},
			{Key: "warning_count", Value: []byte(strconv.Itoa(board.Len()))},
		},
	}, nil
}
