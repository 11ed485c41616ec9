package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// Publisher publishes warning boards on a NATS subject.
// It implements pipeline.Publisher.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to NATS. The connection retries in the background
// when the server is not reachable yet.
func NewPublisher(url, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("weather-warning-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}, nil
}

// Publish sends one board. The source key and summary travel as headers.
func (p *Publisher) Publish(ctx context.Context, key string, board domain.Board) error {
	msg, err := newMessage(p.subject, key, board)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish board to nats: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats connection: %w", err)
	}
	p.logger.Debug("board published", "subject", p.subject, "cycle_id", board.CycleID, "warnings", board.Len())
	return nil
}

// CheckReadiness reports whether the connection is established.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats connection %s", p.nc.Status())
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		return fmt.Errorf("drain nats connection: %w", err)
	}
	return nil
}

func newMessage(subject, key string, board domain.Board) (*nats.Msg, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("serialize warning board: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Nats-Msg-Id", board.CycleID)
	msg.Header.Set("source_key", key)
	msg.Header.Set("generated_at", board.GeneratedAt.Format(time.RFC3339))
	msg.Header.Set("warning_count", strconv.Itoa(board.Len()))
	return msg, nil
}
