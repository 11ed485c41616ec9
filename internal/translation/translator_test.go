package translation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
)

// mockGenerator upper-cases the headline it finds in the instructions.
type mockGenerator struct {
	calls atomic.Int32
	err   error
	raw   json.RawMessage
	block chan struct{}

	mu   sync.Mutex
	reqs []GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req GenerateRequest) (json.RawMessage, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.raw != nil {
		return m.raw, nil
	}

	headline := ""
	for _, line := range strings.Split(req.Instructions, "\n") {
		if h, ok := strings.CutPrefix(line, "Headline: "); ok {
			headline = h
		}
	}
	return json.Marshal(map[string]any{
		"data": map[string]string{"headline": strings.ToUpper(headline), "description": "translated"},
	})
}

func newTestTranslator(t *testing.T, gen Generator, cfg Config) (*Translator, *Cache, *observability.Metrics) {
	t.Helper()
	cache, _ := newTestCache(t, NewMemoryStore())
	metrics := observability.NewMetricsForTesting()
	return NewTranslator(gen, cache, cfg, testLogger, metrics), cache, metrics
}

func warning(headline string) domain.Warning {
	return domain.Warning{Variant: domain.VariantDWD, Headline: headline, Description: "original", Instruction: "stay inside", Level: 2}
}

func TestTranslator_Translate(t *testing.T) {
	gen := &mockGenerator{}
	tr, cache, metrics := newTestTranslator(t, gen, Config{EntityID: "ai_task.openai", Concurrency: 2})
	in := []domain.Warning{warning("frost"), warning("sturm")}

	out := tr.Translate(context.Background(), "English", in)
	require.Len(t, out, 2)
	assert.Equal(t, "FROST", out[0].Headline)
	assert.Equal(t, "translated", out[0].Description)
	assert.Equal(t, "stay inside", out[0].Instruction, "empty translated fields keep the original")
	assert.Equal(t, 2, out[1].Level)
	assert.Equal(t, "frost", in[0].Headline, "input is not modified")

	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, 2, cache.Len())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.TranslationRequests.WithLabelValues("success")), 0)

	gen.mu.Lock()
	req := gen.reqs[0]
	gen.mu.Unlock()
	assert.Equal(t, TaskName, req.TaskName)
	assert.Equal(t, "ai_task.openai", req.EntityID)
	assert.Contains(t, req.Instructions, "into English")
}

func TestTranslator_UsesCache(t *testing.T) {
	gen := &mockGenerator{}
	tr, cache, metrics := newTestTranslator(t, gen, Config{})
	w := warning("frost")
	require.NoError(t, cache.Set(context.Background(), "English", ContentKey(w), Text{Headline: "Frost (cached)"}))

	out := tr.Translate(context.Background(), "English", []domain.Warning{w})
	assert.Equal(t, "Frost (cached)", out[0].Headline)
	assert.Zero(t, gen.calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TranslationCache.WithLabelValues("hit")), 0)
}

func TestTranslator_DuplicateKeysCallOnce(t *testing.T) {
	gen := &mockGenerator{}
	tr, _, _ := newTestTranslator(t, gen, Config{Concurrency: 4})

	out := tr.Translate(context.Background(), "English", []domain.Warning{warning("frost"), warning("frost")})
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, "FROST", out[0].Headline)
	assert.Equal(t, "FROST", out[1].Headline, "duplicate picks up the sibling's translation")
}

func TestTranslator_InFlightElsewhereKeepsOriginal(t *testing.T) {
	gen := &mockGenerator{block: make(chan struct{})}
	tr, _, metrics := newTestTranslator(t, gen, Config{})

	done := make(chan []domain.Warning)
	go func() {
		done <- tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	}()
	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	out := tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	assert.Equal(t, "frost", out[0].Headline)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TranslationRequests.WithLabelValues("skipped")), 0)

	close(gen.block)
	first := <-done
	assert.Equal(t, "FROST", first[0].Headline)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestTranslator_GeneratorErrorKeepsOriginal(t *testing.T) {
	gen := &mockGenerator{err: errors.New("ai task unavailable")}
	tr, cache, metrics := newTestTranslator(t, gen, Config{})

	out := tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	assert.Equal(t, "frost", out[0].Headline)
	assert.Zero(t, cache.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TranslationRequests.WithLabelValues("error")), 0)

	// The key is released after a failure so the next cycle retries.
	gen.err = nil
	out = tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	assert.Equal(t, "FROST", out[0].Headline)
}

func TestTranslator_UnparsableResponse(t *testing.T) {
	gen := &mockGenerator{raw: json.RawMessage(`{"data":"I can't translate this."}`)}
	tr, cache, _ := newTestTranslator(t, gen, Config{})

	out := tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	assert.Equal(t, "frost", out[0].Headline)
	assert.Zero(t, cache.Len())
}

func TestTranslator_Timeout(t *testing.T) {
	gen := &mockGenerator{block: make(chan struct{})}
	defer close(gen.block)
	tr, _, _ := newTestTranslator(t, gen, Config{Timeout: 20 * time.Millisecond})

	out := tr.Translate(context.Background(), "English", []domain.Warning{warning("frost")})
	assert.Equal(t, "frost", out[0].Headline)
}

func TestTranslator_EmptyInput(t *testing.T) {
	tr, _, _ := newTestTranslator(t, &mockGenerator{}, Config{})
	assert.Empty(t, tr.Translate(context.Background(), "English", nil))
}
