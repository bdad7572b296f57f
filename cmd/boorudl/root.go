package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"boorudl/pkg/auth"
	"boorudl/pkg/booru"
	"boorudl/pkg/config"
	"boorudl/pkg/fetcher"
	"boorudl/pkg/logger"
	"boorudl/pkg/storage"
	"boorudl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	verbosity   int
	hostFlag    string
	authFlag    string
	outputDir   string
	accountName string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boorudl",
	Short: "A command-line media downloader for Danbooru-style image boards",
	Long: `boorudl downloads media files from Danbooru-style image boards.

Modes:
  post   Download individual posts by ID
  pool   Download every post in a pool, in pool order
  tags   Download every post matching a tag search

Downloads mirror the remote file: an existing local file is only
re-fetched when the server reports a newer version. Credentials can
be stored securely with 'boorudl auth login' or supplied through the
BOORUDL_AUTH environment variable.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.boorudl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v for info, -vv for debug)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "image board hostname (default danbooru.donmai.us)")
	rootCmd.PersistentFlags().StringVar(&authFlag, "auth", "", "credentials as login:api_key")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use specific stored account")

	rootCmd.SetVersionTemplate(`boorudl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// effectiveLogLevel resolves the log level from the explicit flag or the
// repeatable -v flag. The explicit flag wins.
func effectiveLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	switch verbosity {
	case 0:
		return ""
	case 1:
		return "info"
	default:
		return "debug"
	}
}

// globalFlags builds the flag override map passed to config.Load.
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if hostFlag != "" {
		flags["host"] = hostFlag
	}
	if authFlag != "" {
		flags["auth"] = authFlag
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if level := effectiveLogLevel(); level != "" {
		flags["log-level"] = level
	}
	return flags
}

// setup loads configuration, initializes logging, resolves credentials and
// wires up a ready-to-use fetcher. Shared by the post, pool and tags commands.
func setup() (*fetcher.Fetcher, *config.Config, error) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, err
	}
	log := logger.GetLogger()

	resolveCredentials(cfg, func() *auth.Account { return resolveStoredAccount(log) }, log)

	endpoints := booru.NewEndpoints(cfg.Booru.Host, cfg.Booru.Auth)
	client := booru.NewClient(endpoints, cfg.Download.Timeout, log)
	if cfg.Booru.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Booru.UserAgent)
	}

	store, err := storage.NewManager(cfg.Output.Directory)
	if err != nil {
		return nil, nil, err
	}

	return fetcher.New(client, store, log), cfg, nil
}

// resolveCredentials fills in cfg.Booru.Auth from a stored account. An
// explicit flag or environment credential always wins; a config-file value
// is kept only when no stored account exists. Anonymous access is fine for
// public posts.
func resolveCredentials(cfg *config.Config, lookup func() *auth.Account, log logger.Logger) {
	if cfg.Booru.Auth != "" && cfg.AuthSource() != config.SourceFile {
		if accountName != "" {
			log.Warn("ignoring --account because explicit credentials were provided")
		}
		return
	}

	if account := lookup(); account != nil {
		cfg.Booru.Auth = account.Userinfo()
		log.WithField("account", account.Login).Info("using stored credentials")
	}
}

// resolveStoredAccount looks up credentials from the credential manager.
// Returns nil when no usable account is found.
func resolveStoredAccount(log logger.Logger) *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential manager unavailable")
		return nil
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "Use 'boorudl auth list' to see stored accounts")
			os.Exit(1)
		}
		return account
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return nil
	}
	return account
}

// reportSummary prints the run summary and returns an error when any
// download failed, so the process exits non-zero.
func reportSummary(summary fetcher.Summary) error {
	if summary.Failed > 0 {
		ui.PrintWarning(summary.String())
		return fmt.Errorf("%d of %d downloads failed", summary.Failed, summary.Total())
	}
	ui.PrintSuccess(summary.String())
	return nil
}
