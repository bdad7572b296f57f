package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"boorudl/pkg/ui"
)

// postCmd represents the post command
var postCmd = &cobra.Command{
	Use:   "post <id>...",
	Short: "Download individual posts by ID",
	Long: `Download one or more posts by their numeric IDs.

Each file is saved as <md5>.<ext> in the output directory. Posts are
downloaded in the order given. A post that cannot be fetched is
reported and skipped, the rest of the batch still runs.`,
	Example: `  # Download a single post
  boorudl post 12345

  # Download several posts into a directory
  boorudl post 12345 67890 --output ./downloads`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	ids, err := parsePostArgs(args)
	if err != nil {
		return err
	}

	f, cfg, err := setup()
	if err != nil {
		ui.PrintError("Failed to initialize", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Downloading posts", strings.Join(args, " "))
	ui.PrintInfo("Output directory", cfg.Output.Directory)

	summary := f.FetchPosts(ids)
	return reportSummary(summary)
}

// parsePostArgs converts command arguments to post IDs.
func parsePostArgs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid post ID %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
