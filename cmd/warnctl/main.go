// Command warnctl builds warning boards from saved Home Assistant snapshots,
// captures new snapshots and inspects the translation cache.
//
// Usage:
//
//	warnctl fetch --nina-prefix binary_sensor.nina_warnung --out snap.json
//	warnctl reconcile --snapshot snap.json --card card.toml
//	warnctl cache show
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "warnctl",
	Short:         "Weather warning board tooling",
	Long:          `warnctl reconciles NINA and DWD warnings offline, captures Home Assistant snapshots and manages the translation cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		mode, _ := cmd.Flags().GetString("color")
		return applyColorMode(mode)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(cacheCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// applyColorMode overrides fatih/color's terminal detection.
func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color %q: must be auto, on or off", mode)
	}
	return nil
}
