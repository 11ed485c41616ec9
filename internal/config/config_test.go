package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

const (
	testToken  = "ha-long-lived-token"
	testPrefix = "binary_sensor.nina_warnung"
	testDevice = "5f0d2c9a"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HA_TOKEN", testToken)
	t.Setenv("NINA_ENTITY_PREFIX", testPrefix)
}

func writeCard(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://homeassistant.local:8123", cfg.HAURL)
	assert.Equal(t, testToken, cfg.HAToken)
	assert.Equal(t, 10*time.Second, cfg.HATimeout)
	assert.Equal(t, testPrefix, cfg.NINAPrefix)
	assert.Empty(t, cfg.DWDDevice)
	assert.Equal(t, 5, cfg.MaxWarnings)
	assert.Zero(t, cfg.HideBelowLevel)
	assert.False(t, cfg.IgnoreInstructions)
	assert.False(t, cfg.SeparateAdvance)
	assert.Equal(t, domain.MirrorSenderDWD, cfg.MirrorSender)
	assert.NotNil(t, cfg.Normalizer)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, BackendNone, cfg.PublishBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-warnings", cfg.KafkaSinkTopic)
	assert.False(t, cfg.TranslationEnabled)
	assert.Equal(t, "English", cfg.TranslationLanguage)
	assert.Equal(t, 2, cfg.TranslationConcurrency)
	assert.InDelta(t, 1.0, cfg.TranslationRate, 0)
	assert.Equal(t, BackendMemory, cfg.CacheBackend)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("HA_URL", "http://ha:8123")
	t.Setenv("DWD_DEVICE", testDevice)
	t.Setenv("MAX_WARNINGS", "3")
	t.Setenv("HIDE_ON_LEVEL_BELOW", "2")
	t.Setenv("MERGE_IGNORE_INSTRUCTIONS", "true")
	t.Setenv("SEPARATE_ADVANCE_WARNINGS", "true")
	t.Setenv("MIRROR_SENDER", "none")
	t.Setenv("POLL_INTERVAL", "5m")
	t.Setenv("PUBLISH_BACKEND", "Kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "warnings")
	t.Setenv("TRANSLATION_ENABLED", "true")
	t.Setenv("TRANSLATION_LANGUAGE", "French")
	t.Setenv("TRANSLATION_AI_ENTITY", "ai_task.openai")
	t.Setenv("TRANSLATION_RATE", "0.5")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://ha:8123", cfg.HAURL)
	assert.Equal(t, domain.Sources{NINAPrefix: testPrefix, DWDDevice: testDevice}, cfg.Sources())
	assert.Empty(t, cfg.MirrorSender, "none disables the mirror filter")
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, BackendKafka, cfg.PublishBackend)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.TranslationEnabled)
	assert.Equal(t, "French", cfg.TranslationLanguage)
	assert.Equal(t, "ai_task.openai", cfg.TranslationEntity)
	assert.InDelta(t, 0.5, cfg.TranslationRate, 0)
	assert.Equal(t, BackendRedis, cfg.CacheBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)

	opts := cfg.BoardOptions()
	assert.Equal(t, 3, opts.MaxCount)
	assert.Equal(t, 2, opts.HideBelowLevel)
	assert.True(t, opts.IgnoreInstructions)
	assert.True(t, opts.SeparateAdvance)
	assert.Empty(t, opts.MirrorSender)
}

func TestLoad_RequiresSource(t *testing.T) {
	t.Setenv("HA_TOKEN", testToken)

	_, err := Load()
	require.ErrorIs(t, err, domain.ErrNoSource)
}

func TestLoad_DWDDeviceAloneIsEnough(t *testing.T) {
	t.Setenv("HA_TOKEN", testToken)
	t.Setenv("DWD_DEVICE", testDevice)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testDevice, cfg.DWDDevice)
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("NINA_ENTITY_PREFIX", testPrefix)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HA_TOKEN")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"POLL_INTERVAL", "0s", "POLL_INTERVAL"},
		{"HA_TIMEOUT", "soon", "HA_TIMEOUT"},
		{"TRANSLATION_TIMEOUT", "-5s", "TRANSLATION_TIMEOUT"},
		{"MAX_WARNINGS", "many", "MAX_WARNINGS"},
		{"MAX_WARNINGS", "-1", "MAX_WARNINGS"},
		{"HIDE_ON_LEVEL_BELOW", "5", "HIDE_ON_LEVEL_BELOW"},
		{"TRANSLATION_CONCURRENCY", "0", "TRANSLATION_CONCURRENCY"},
		{"TRANSLATION_RATE", "-1", "TRANSLATION_RATE"},
		{"REDIS_DB", "16", "REDIS_DB"},
		{"SEPARATE_ADVANCE_WARNINGS", "yes please", "SEPARATE_ADVANCE_WARNINGS"},
		{"WARNING_PREFIX_PATTERN", "(unclosed", "WARNING_PREFIX_PATTERN"},
		{"PUBLISH_BACKEND", "carrier-pigeon", "PUBLISH_BACKEND"},
		{"CACHE_BACKEND", "disk", "CACHE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_KafkaRequiresBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLISH_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_CardFile(t *testing.T) {
	t.Setenv("HA_TOKEN", testToken)
	t.Setenv("CARD_CONFIG_FILE", writeCard(t, `
nina_entity_prefix = "binary_sensor.warnung"
dwd_device = "abc"
max_warnings = 8
hide_on_level_below = 1
separate_advance_warnings = true
hide_instructions = true

[color_overrides]
severe = "#d32f2f"
no_warning = "green"
`))
	t.Setenv("MAX_WARNINGS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "binary_sensor.warnung", cfg.NINAPrefix)
	assert.Equal(t, "abc", cfg.DWDDevice)
	assert.Equal(t, 2, cfg.MaxWarnings, "environment wins over the card file")
	assert.Equal(t, 1, cfg.HideBelowLevel)
	assert.True(t, cfg.SeparateAdvance)
	assert.True(t, cfg.HideInstructions)
	assert.Equal(t, "#d32f2f", cfg.Colors.Severe)
	assert.Equal(t, "green", cfg.Colors.NoWarning)
	assert.Equal(t, "#d32f2f", domain.SeverityColor(domain.ScoreSevere, cfg.BoardOptions().Colors))
}

func TestLoadCard_Errors(t *testing.T) {
	_, err := LoadCard(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = LoadCard(writeCard(t, `max_warnings = "five"`))
	require.Error(t, err)

	_, err = LoadCard(writeCard(t, `titel = "typo"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")
}

func TestLoad_InvalidCardFile(t *testing.T) {
	setRequired(t)
	t.Setenv("CARD_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card file")
}

func TestCard_BoardOptions(t *testing.T) {
	card, err := LoadCard(writeCard(t, `
dwd_device = "5f0d2c9a"
hide_on_level_below = 2
separate_advance_warnings = true
hide_instructions = true
mirror_sender = "none"

[color_overrides]
minor = "gold"
`))
	require.NoError(t, err)

	assert.Equal(t, domain.Sources{DWDDevice: testDevice}, card.Sources())

	opts, err := card.BoardOptions()
	require.NoError(t, err)
	assert.Equal(t, 2, opts.HideBelowLevel)
	assert.Equal(t, 5, opts.MaxCount)
	assert.Empty(t, opts.MirrorSender)
	assert.True(t, opts.SeparateAdvance)
	assert.True(t, opts.HideInstructions)
	assert.Equal(t, "gold", opts.Colors.Minor)
	assert.NotNil(t, opts.Normalizer)
}

func TestCard_BoardOptionsDefaults(t *testing.T) {
	opts, err := (&Card{}).BoardOptions()
	require.NoError(t, err)
	assert.Equal(t, domain.MirrorSenderDWD, opts.MirrorSender)
	assert.Equal(t, 5, opts.MaxCount)

	bad := "("
	_, err = (&Card{PrefixPattern: &bad}).BoardOptions()
	require.Error(t, err)
}
