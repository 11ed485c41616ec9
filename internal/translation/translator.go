package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
)

// TaskName is the AI task name sent with every translation request.
const TaskName = "nina_dwd_translation"

// GenerateRequest asks an AI task entity to generate structured data.
type GenerateRequest struct {
	TaskName     string
	Instructions string
	EntityID     string
}

// Generator runs AI generation tasks, e.g. Home Assistant's ai_task service.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error)
}

// Config tunes a Translator.
type Config struct {
	// EntityID is the AI task entity; empty lets the generator pick its default.
	EntityID string
	// Timeout bounds each generator call.
	Timeout time.Duration
	// Concurrency caps simultaneous generator calls.
	Concurrency int
	// Rate limits generator calls per second; zero means unlimited.
	Rate float64
}

// Translator translates warning texts through a Generator, reading through a Cache.
type Translator struct {
	gen     Generator
	cache   *Cache
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewTranslator creates a Translator.
func NewTranslator(gen Generator, cache *Cache, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Translator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	return &Translator{
		gen:     gen,
		cache:   cache,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		metrics: metrics,
		pending: make(map[string]struct{}),
	}
}

// Translate returns a copy of warnings with texts translated into lang.
// Warnings whose translation is cached are filled from the cache; the rest are
// sent to the generator, at most once per content key at a time. When a
// translation fails or is already in flight elsewhere, the original text is kept.
func (t *Translator) Translate(ctx context.Context, lang string, warnings []domain.Warning) []domain.Warning {
	out := slices.Clone(warnings)

	var (
		g        errgroup.Group
		deferred []int
	)
	g.SetLimit(t.cfg.Concurrency)

	for i, w := range out {
		key := ContentKey(w)
		if entry, ok := t.cache.Get(lang, key); ok {
			t.metrics.TranslationCache.WithLabelValues("hit").Inc()
			out[i] = apply(w, entry.Text)
			continue
		}
		t.metrics.TranslationCache.WithLabelValues("miss").Inc()

		if !t.claim(lang, key) {
			deferred = append(deferred, i)
			continue
		}
		g.Go(func() error {
			defer t.release(lang, key)
			if text, ok := t.translate(ctx, lang, key, w); ok {
				out[i] = apply(w, text)
			}
			return nil
		})
	}
	_ = g.Wait()

	// Duplicates within this call may have been translated by a sibling.
	for _, i := range deferred {
		if entry, ok := t.cache.Get(lang, ContentKey(out[i])); ok {
			out[i] = apply(out[i], entry.Text)
			continue
		}
		t.metrics.TranslationRequests.WithLabelValues("skipped").Inc()
	}
	return out
}

func (t *Translator) translate(ctx context.Context, lang, key string, w domain.Warning) (Text, bool) {
	if err := t.limiter.Wait(ctx); err != nil {
		t.metrics.TranslationRequests.WithLabelValues("skipped").Inc()
		return Text{}, false
	}

	callCtx := ctx
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := t.gen.Generate(callCtx, GenerateRequest{
		TaskName:     TaskName,
		Instructions: instructions(lang, w),
		EntityID:     t.cfg.EntityID,
	})
	t.metrics.TranslationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		t.logger.Warn("translation request failed", "error", err, "language", lang, "headline", w.Headline)
		t.metrics.TranslationRequests.WithLabelValues("error").Inc()
		return Text{}, false
	}

	text, err := ParseTranslation(raw)
	if err != nil {
		t.logger.Warn("translation response unusable", "error", err, "language", lang, "headline", w.Headline)
		t.metrics.TranslationRequests.WithLabelValues("error").Inc()
		return Text{}, false
	}
	t.metrics.TranslationRequests.WithLabelValues("success").Inc()

	if err := t.cache.Set(ctx, lang, key, text); err != nil {
		t.logger.Warn("failed to cache translation", "error", err, "language", lang)
	}
	return text, true
}

// claim marks a (language, key) pair as in flight. It reports false when
// another call already holds it.
func (t *Translator) claim(lang, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := lang + "\x00" + key
	if _, ok := t.pending[id]; ok {
		return false
	}
	t.pending[id] = struct{}{}
	return true
}

func (t *Translator) release(lang, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, lang+"\x00"+key)
}

// apply overlays non-empty translated fields onto w.
func apply(w domain.Warning, text Text) domain.Warning {
	if text.Headline != "" {
		w.Headline = text.Headline
	}
	if text.Description != "" {
		w.Description = text.Description
	}
	if text.Instruction != "" {
		w.Instruction = text.Instruction
	}
	return w
}

func instructions(lang string, w domain.Warning) string {
	return fmt.Sprintf(`Translate the following official weather warning into %s.
Respond only with a JSON object with the string fields "headline", "description" and "instruction".
Keep empty fields empty and do not add any explanation.

Headline: %s
Description: %s
Instruction: %s`, lang, w.Headline, w.Description, w.Instruction)
}
