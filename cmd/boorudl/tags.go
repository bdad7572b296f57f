package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"boorudl/pkg/ui"
)

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags <tag>...",
	Short: "Download every post matching a tag search",
	Long: `Download every post matching a tag search.

The matching posts are counted first, then fetched page by page.
Files are named <md5>.<ext>. A post that cannot be downloaded is
reported and skipped; a failed page fetch aborts the run since the
remaining pages could no longer be trusted.

Note that most boards limit anonymous searches to two tags.`,
	Example: `  # Download everything matching a single tag
  boorudl tags scenery

  # Combine tags (boards treat multiple tags as AND)
  boorudl tags scenery rating:general --output ./scenery`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	f, cfg, err := setup()
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Downloading tags", strings.Join(args, " "))
	ui.PrintInfo("Output directory", cfg.Output.Directory)

	summary, err := f.FetchTags(args)
	if err != nil {
		ui.PrintError("Failed to fetch tag search", err.Error())
		os.Exit(1)
	}

	return reportSummary(summary)
}
