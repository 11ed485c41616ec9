package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	defaultInterval = time.Minute
)

// SnapshotReader reads the Home Assistant entities for the selected sources.
type SnapshotReader interface {
	Snapshot(ctx context.Context, src domain.Sources) (domain.Snapshot, error)
}

// Translator translates warning texts into a target language. Warnings it
// cannot translate are returned unchanged.
type Translator interface {
	Translate(ctx context.Context, lang string, warnings []domain.Warning) []domain.Warning
}

// Publisher delivers a finished board downstream.
type Publisher interface {
	Publish(ctx context.Context, key string, board domain.Board) error
}

// Options configures a Pipeline.
type Options struct {
	Sources  domain.Sources
	Board    domain.BoardOptions
	Interval time.Duration
	// Language is the translation target; ignored without a Translator.
	Language string
}

// Pipeline polls Home Assistant, reconciles the warnings into a board,
// optionally translates it, and publishes it.
type Pipeline struct {
	reader     SnapshotReader
	translator Translator
	publisher  Publisher
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	latest     atomic.Pointer[domain.Board]
}

// New creates a Pipeline. Pass a nil translator to skip translation and a nil
// publisher to only serve boards over HTTP.
func New(r SnapshotReader, t Translator, p Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Pipeline{
		reader:     r,
		translator: t,
		publisher:  p,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a board has been built, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no poll cycle has completed yet")
	}
	return nil
}

// Latest returns the most recent board.
func (p *Pipeline) Latest() (domain.Board, bool) {
	b := p.latest.Load()
	if b == nil {
		return domain.Board{}, false
	}
	return *b, true
}

// Run polls until the context is cancelled. Failed cycles are retried with
// exponential backoff; successful cycles wait for the poll interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"interval", p.opts.Interval,
		"nina_prefix", p.opts.Sources.NINAPrefix,
		"dwd_device", p.opts.Sources.DWDDevice,
		"separate_advance", p.opts.Board.SeparateAdvance,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		wait := p.opts.Interval
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("poll cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !retry.SleepWithContext(ctx, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Poll runs one collect-reconcile-translate-publish cycle and stores the
// resulting board as the latest. A publish failure is logged and counted but
// does not fail the cycle; the board is still served.
func (p *Pipeline) Poll(ctx context.Context) (domain.Board, error) {
	start := time.Now()

	snap, err := p.reader.Snapshot(ctx, p.opts.Sources)
	if err != nil {
		p.metrics.PollsTotal.WithLabelValues("error").Inc()
		return domain.Board{}, fmt.Errorf("read snapshot: %w", err)
	}

	collected := domain.Collect(snap, p.opts.Sources)
	p.metrics.WarningsCollected.WithLabelValues("nina").Set(float64(len(collected.NINA)))
	p.metrics.WarningsCollected.WithLabelValues("dwd_current").Set(float64(len(collected.DWDCurrent)))
	p.metrics.WarningsCollected.WithLabelValues("dwd_advance").Set(float64(len(collected.DWDAdvance)))

	board := domain.BuildBoard(collected, p.opts.Board)
	if p.translator != nil {
		board = translateBoard(ctx, p.translator, p.opts.Language, board)
	}

	p.latest.Store(&board)
	p.ready.Store(true)
	p.metrics.WarningsDisplayed.Set(float64(board.Len()))

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, p.opts.Sources.Key(), board); err != nil {
			p.logger.Warn("publish board failed", "error", err, "cycle_id", board.CycleID)
			p.metrics.PublishErrors.Inc()
		} else {
			p.metrics.BoardsPublished.Inc()
		}
	}

	p.metrics.PollsTotal.WithLabelValues("success").Inc()
	p.metrics.PollDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("poll cycle complete",
		"cycle_id", board.CycleID,
		"collected", collected.Len(),
		"displayed", board.Len(),
		"duration", time.Since(start),
	)
	return board, nil
}
