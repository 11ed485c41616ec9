package main

import (
	"fmt"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	redisadapter "github.com/couchcryptid/weather-warning-service/internal/adapter/redis"
	"github.com/couchcryptid/weather-warning-service/internal/translation"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the Redis translation cache",
	Long: `Operate on the translation document the service keeps in Redis. The
connection is configured with REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and
REDIS_KEY_PREFIX, as for the service.`,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached translations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(cmd, func(c *translation.Cache, clock clockwork.Clock) error {
			printCache(cmd.OutOrStdout(), c, clock.Now())
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached translations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(cmd, func(c *translation.Cache, _ clockwork.Clock) error {
			n := c.Len()
			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached translations\n", n)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func withCache(cmd *cobra.Command, fn func(*translation.Cache, clockwork.Clock) error) error {
	db, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	store, err := redisadapter.NewStore(cmd.Context(), redisadapter.Options{
		Addr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: sharedcfg.EnvOrDefault("REDIS_PASSWORD", ""),
		DB:       db,
		Prefix:   sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "weather-warning-service:"),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	logger := sharedobs.NewLogger(sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"), "text")
	return fn(translation.NewCache(cmd.Context(), store, clock, logger), clock)
}
