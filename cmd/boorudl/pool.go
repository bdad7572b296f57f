package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"boorudl/pkg/ui"
)

var poolUseMD5 bool

// poolCmd represents the pool command
var poolCmd = &cobra.Command{
	Use:   "pool <id>",
	Short: "Download every post in a pool",
	Long: `Download every post in a pool, in the pool's own order.

Files are named by zero-padded sequence number reflecting the pool
position, so the downloaded set sorts in reading order. Pass --md5 to
name files by checksum instead. A post that cannot be fetched is
reported and skipped, its sequence number stays reserved so later
posts keep their positions.`,
	Example: `  # Download a pool with sequence-numbered filenames
  boorudl pool 4321

  # Download a pool with checksum filenames
  boorudl pool 4321 --md5`,
	Args: cobra.ExactArgs(1),
	RunE: runPool,
}

func init() {
	rootCmd.AddCommand(poolCmd)

	poolCmd.Flags().BoolVar(&poolUseMD5, "md5", false, "name files by checksum instead of pool position")
}

func runPool(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid pool ID %q", args[0])
	}

	f, cfg, err := setup()
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Downloading pool", args[0])
	ui.PrintInfo("Output directory", cfg.Output.Directory)

	summary, err := f.FetchPool(id, poolUseMD5)
	if err != nil {
		ui.PrintError("Failed to fetch pool", err.Error())
		os.Exit(1)
	}

	return reportSummary(summary)
}
