package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"boorudl/pkg/auth"
	"boorudl/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage board credentials",
	Long: `Manage stored image board credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (BOORUDL_AUTH as login:api_key)

API keys are found on your board profile page under "API Key".`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [login]",
	Short: "Store board credentials securely",
	Long: `Store board credentials in the system keychain or an encrypted file.

You will be prompted for:
  - Board login name (if not provided)
  - API key (from your board profile page)`,
	Example: `  # Interactive login
  boorudl auth login

  # Login with a known account name
  boorudl auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [login]",
	Short: "Remove stored credentials",
	Long: `Remove stored board credentials.

If no login is provided and exactly one account is stored, that
account is removed after confirmation.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored board accounts with sanitized credential information.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var login string
	if len(args) > 0 {
		login = args[0]
	} else {
		fmt.Print("Board login: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read login", err.Error())
			os.Exit(1)
		}
		login = strings.TrimSpace(input)
	}

	if login == "" {
		ui.PrintError("Login is required", "")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(login); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", login)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("API key (input hidden): ")
	apiKey, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read API key", err.Error())
		os.Exit(1)
	}

	if apiKey == "" {
		ui.PrintError("API key is required", "")
		os.Exit(1)
	}

	account := &auth.Account{
		Login:        login,
		APIKey:       apiKey,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", login))
	fmt.Println("\nDownloads now authenticate automatically:")
	fmt.Println("  $ boorudl post 12345")
	fmt.Printf("\nUse a specific account with --account %s\n", login)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		login := args[0]
		if err := manager.Delete(login); err != nil {
			ui.PrintError("Failed to remove account", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Account removed: " + login)
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored accounts found", "")
		return
	}

	if len(accounts) > 1 {
		ui.PrintError("Multiple accounts stored", "specify the login to remove")
		for _, account := range accounts {
			fmt.Printf("  boorudl auth logout %s\n", account.Login)
		}
		os.Exit(1)
	}

	account := accounts[0]
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Remove account '%s'? (y/N): ", account.Login)
	input, _ := reader.ReadString('\n')
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
		return
	}

	if err := manager.Delete(account.Login); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + account.Login)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'boorudl auth login' to add an account")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Login: %s\n", i+1, sanitized.Login)
		fmt.Printf("   API Key: %s\n", sanitized.APIKey)
		fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// readPassword reads a password from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
