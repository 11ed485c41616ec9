package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-warning-service/internal/config"
	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Build a warning board from a saved snapshot",
	Long: `Collect, merge and rank the warnings of a snapshot written by "warnctl fetch"
and print the resulting board. Display settings come from an optional card file;
--nina-prefix and --dwd-device override the card's source selection.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	f := reconcileCmd.Flags()
	f.String("snapshot", "", "snapshot JSON file")
	f.String("card", "", "card TOML file with display settings")
	f.String("nina-prefix", "", "NINA entity prefix")
	f.String("dwd-device", "", "DWD device id")
	f.Bool("json", false, "print the board as JSON")
	_ = reconcileCmd.MarkFlagRequired("snapshot")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	snapPath, _ := cmd.Flags().GetString("snapshot")
	cardPath, _ := cmd.Flags().GetString("card")
	ninaPrefix, _ := cmd.Flags().GetString("nina-prefix")
	dwdDevice, _ := cmd.Flags().GetString("dwd-device")
	asJSON, _ := cmd.Flags().GetBool("json")

	board, err := boardFromSnapshot(snapPath, cardPath, domain.Sources{NINAPrefix: ninaPrefix, DWDDevice: dwdDevice})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	}
	printBoard(out, board)
	return nil
}

// boardFromSnapshot builds a board from a snapshot file. Non-empty fields of
// override replace the card's source selection.
func boardFromSnapshot(snapPath, cardPath string, override domain.Sources) (domain.Board, error) {
	card, err := loadCard(cardPath)
	if err != nil {
		return domain.Board{}, err
	}

	src := card.Sources()
	if override.NINAPrefix != "" {
		src.NINAPrefix = override.NINAPrefix
	}
	if override.DWDDevice != "" {
		src.DWDDevice = override.DWDDevice
	}
	if err := src.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("--nina-prefix or --dwd-device: %w", err)
	}

	opts, err := card.BoardOptions()
	if err != nil {
		return domain.Board{}, err
	}

	snap, err := readSnapshot(snapPath)
	if err != nil {
		return domain.Board{}, err
	}
	return domain.BuildBoard(domain.Collect(snap, src), opts), nil
}

func loadCard(path string) (*config.Card, error) {
	if path == "" {
		return &config.Card{}, nil
	}
	return config.LoadCard(path)
}

func readSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}
