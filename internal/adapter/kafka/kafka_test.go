package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 10, 16, 12, 0, 0, 0, time.UTC)
	board := domain.Board{
		CycleID:     "cycle-1",
		GeneratedAt: now,
		Current: domain.Decorate([]domain.Warning{
			{Variant: domain.VariantDWD, Headline: "STURMBÖEN", Level: 2},
			{Variant: domain.VariantNINA, Headline: "Hochwasser", Severity: domain.SeveritySevere},
		}, domain.ColorOverrides{}),
	}

	msg, err := serializeToMessage("binary_sensor.nina_warnung|dwd-device", board)
	require.NoError(t, err)

	assert.Equal(t, []byte("binary_sensor.nina_warnung|dwd-device"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "generated_at", msg.Headers[0].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[0].Value)
	assert.Equal(t, "warning_count", msg.Headers[1].Key)
	assert.Equal(t, []byte("2"), msg.Headers[1].Value)

	var got domain.Board
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "cycle-1", got.CycleID)
	require.Len(t, got.Current, 2)
	assert.Equal(t, domain.VariantDWD, got.Current[0].Variant)
	assert.Equal(t, "#fb8c00", got.Current[0].Color)
	assert.Contains(t, string(msg.Value), `"variant":"nina"`)
}

func TestSerializeToMessage_EmptyBoard(t *testing.T) {
	msg, err := serializeToMessage("k", domain.Board{CycleID: "c"})
	require.NoError(t, err)
	assert.Equal(t, []byte("0"), msg.Headers[1].Value)
	assert.Contains(t, string(msg.Value), `"current":null`)
}
