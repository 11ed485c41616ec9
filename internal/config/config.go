package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// Publish and cache backends.
const (
	BackendKafka  = "kafka"
	BackendNATS   = "nats"
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const (
	// mirrorSenderOff disables the mirror-sender filter.
	mirrorSenderOff = "none"

	defaultMaxWarnings = 5
)

// Config holds all service settings, populated from environment variables
// and an optional card file (CARD_CONFIG_FILE). Environment variables win.
type Config struct {
	HAURL     string
	HAToken   string
	HATimeout time.Duration

	NINAPrefix string
	DWDDevice  string

	// Display and merge settings.
	MaxWarnings        int
	HideBelowLevel     int
	IgnoreInstructions bool
	SeparateAdvance    bool
	HideInstructions   bool
	MirrorSender       string
	PrefixPattern      string
	Colors             domain.ColorOverrides
	Normalizer         *domain.Normalizer

	PollInterval    time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	PublishBackend string
	KafkaBrokers   []string
	KafkaSinkTopic string
	NATSURL        string
	NATSSubject    string

	// AI translation configuration.
	TranslationEnabled     bool
	TranslationLanguage    string
	TranslationEntity      string
	TranslationTimeout     time.Duration
	TranslationConcurrency int
	TranslationRate        float64

	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Load reads configuration from environment variables, applying card file
// values and defaults where unset.
func Load() (*Config, error) {
	card := &Card{}
	if path := os.Getenv("CARD_CONFIG_FILE"); path != "" {
		var err error
		if card, err = LoadCard(path); err != nil {
			return nil, err
		}
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	haTimeout, err := parsePositiveDuration("HA_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	translationTimeout, err := parsePositiveDuration("TRANSLATION_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	maxWarnings, err := parseInt("MAX_WARNINGS", intOr(card.MaxWarnings, defaultMaxWarnings), 0, 100)
	if err != nil {
		return nil, err
	}
	hideBelow, err := parseInt("HIDE_ON_LEVEL_BELOW", intOr(card.HideOnLevelBelow, 0), 0, domain.ScoreExtreme)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseInt("TRANSLATION_CONCURRENCY", 2, 1, 32)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0, 0, 15)
	if err != nil {
		return nil, err
	}
	rate, err := parseFloat("TRANSLATION_RATE", 1)
	if err != nil {
		return nil, err
	}

	ignoreInstructions, err := parseBool("MERGE_IGNORE_INSTRUCTIONS", boolOr(card.IgnoreInstructions, false))
	if err != nil {
		return nil, err
	}
	separate, err := parseBool("SEPARATE_ADVANCE_WARNINGS", boolOr(card.SeparateAdvanceWarnings, false))
	if err != nil {
		return nil, err
	}
	hideInstructions, err := parseBool("HIDE_INSTRUCTIONS", boolOr(card.HideInstructions, false))
	if err != nil {
		return nil, err
	}
	translationEnabled, err := parseBool("TRANSLATION_ENABLED", false)
	if err != nil {
		return nil, err
	}

	mirrorSender := sharedcfg.EnvOrDefault("MIRROR_SENDER", strOr(card.MirrorSender, domain.MirrorSenderDWD))
	if strings.EqualFold(mirrorSender, mirrorSenderOff) {
		mirrorSender = ""
	}

	cfg := &Config{
		HAURL:     sharedcfg.EnvOrDefault("HA_URL", "http://homeassistant.local:8123"),
		HAToken:   os.Getenv("HA_TOKEN"),
		HATimeout: haTimeout,

		NINAPrefix: sharedcfg.EnvOrDefault("NINA_ENTITY_PREFIX", strOr(card.NINAPrefix, "")),
		DWDDevice:  sharedcfg.EnvOrDefault("DWD_DEVICE", strOr(card.DWDDevice, "")),

		MaxWarnings:        maxWarnings,
		HideBelowLevel:     hideBelow,
		IgnoreInstructions: ignoreInstructions,
		SeparateAdvance:    separate,
		HideInstructions:   hideInstructions,
		MirrorSender:       mirrorSender,
		PrefixPattern:      sharedcfg.EnvOrDefault("WARNING_PREFIX_PATTERN", strOr(card.PrefixPattern, "")),
		Colors:             card.ColorOverrides,

		PollInterval:    pollInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PublishBackend: strings.ToLower(sharedcfg.EnvOrDefault("PUBLISH_BACKEND", BackendNone)),
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "weather-warnings"),
		NATSURL:        sharedcfg.EnvOrDefault("NATS_URL", "nats://localhost:4222"),
		NATSSubject:    sharedcfg.EnvOrDefault("NATS_SUBJECT", "weather.warnings"),

		TranslationEnabled:     translationEnabled,
		TranslationLanguage:    sharedcfg.EnvOrDefault("TRANSLATION_LANGUAGE", "English"),
		TranslationEntity:      os.Getenv("TRANSLATION_AI_ENTITY"),
		TranslationTimeout:     translationTimeout,
		TranslationConcurrency: concurrency,
		TranslationRate:        rate,

		CacheBackend:  strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", BackendMemory)),
		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisPrefix:   sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "weather-warning-service:"),
	}

	if err := cfg.Sources().Validate(); err != nil {
		return nil, fmt.Errorf("NINA_ENTITY_PREFIX or DWD_DEVICE: %w", err)
	}
	if cfg.HAToken == "" {
		return nil, errors.New("HA_TOKEN is required")
	}

	if cfg.Normalizer, err = domain.NewNormalizer(cfg.PrefixPattern); err != nil {
		return nil, fmt.Errorf("invalid WARNING_PREFIX_PATTERN: %w", err)
	}

	switch cfg.PublishBackend {
	case BackendKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	case BackendNATS, BackendNone:
	default:
		return nil, fmt.Errorf("invalid PUBLISH_BACKEND %q: must be kafka, nats or none", cfg.PublishBackend)
	}

	switch cfg.CacheBackend {
	case BackendMemory, BackendRedis:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: must be memory or redis", cfg.CacheBackend)
	}

	return cfg, nil
}

// Sources returns the configured feed selection.
func (c *Config) Sources() domain.Sources {
	return domain.Sources{NINAPrefix: c.NINAPrefix, DWDDevice: c.DWDDevice}
}

// BoardOptions returns the reconciliation and display settings.
func (c *Config) BoardOptions() domain.BoardOptions {
	return domain.BoardOptions{
		Options: domain.Options{
			HideBelowLevel:     c.HideBelowLevel,
			MaxCount:           c.MaxWarnings,
			IgnoreInstructions: c.IgnoreInstructions,
			MirrorSender:       c.MirrorSender,
			Normalizer:         c.Normalizer,
		},
		SeparateAdvance:  c.SeparateAdvance,
		HideInstructions: c.HideInstructions,
		Colors:           c.Colors,
	}
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be %d-%d", key, minVal, maxVal)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative number", key)
	}
	return f, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}
