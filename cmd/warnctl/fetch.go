package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-warning-service/internal/adapter/homeassistant"
	"github.com/couchcryptid/weather-warning-service/internal/domain"
	"github.com/couchcryptid/weather-warning-service/internal/observability"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Capture a snapshot of the warning entities from Home Assistant",
	Long: `Read the NINA and DWD entities from Home Assistant and write them as a
snapshot file for "warnctl reconcile" or as a test fixture. The server and
token are taken from HA_URL and HA_TOKEN; the flags override NINA_ENTITY_PREFIX
and DWD_DEVICE.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("out", "-", `output file ("-" for stdout)`)
	f.String("nina-prefix", "", "NINA entity prefix")
	f.String("dwd-device", "", "DWD device id")
	f.Duration("timeout", 10*time.Second, "Home Assistant request timeout")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	ninaPrefix, _ := cmd.Flags().GetString("nina-prefix")
	dwdDevice, _ := cmd.Flags().GetString("dwd-device")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	src := domain.Sources{
		NINAPrefix: os.Getenv("NINA_ENTITY_PREFIX"),
		DWDDevice:  os.Getenv("DWD_DEVICE"),
	}
	if ninaPrefix != "" {
		src.NINAPrefix = ninaPrefix
	}
	if dwdDevice != "" {
		src.DWDDevice = dwdDevice
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("--nina-prefix or --dwd-device: %w", err)
	}

	token := os.Getenv("HA_TOKEN")
	if token == "" {
		return errors.New("HA_TOKEN is required")
	}

	logger := sharedobs.NewLogger(sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"), "text")
	client := homeassistant.NewClient(
		sharedcfg.EnvOrDefault("HA_URL", "http://homeassistant.local:8123"),
		token, timeout, logger, observability.NewUnregisteredMetrics(),
	)

	snap, err := client.Snapshot(cmd.Context(), src)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if out == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entities to %s\n", len(snap.States), out)
	return nil
}
