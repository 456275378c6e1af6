package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gorobchenkoann/save-from-inst/pkg/auth"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
)

// authCmd groups the credential commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Instagram session cookies",
	Long: `Public posts can be looked up without logging in. When Instagram answers
with a login page instead, store the session cookies of a logged-in browser.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (SAVEFROMINST_SESSION_ID, SAVEFROMINST_CSRF_TOKEN)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store session cookies securely",
	Example: `  # Interactive login
  save-from-inst auth login

  # Login with username
  save-from-inst auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked credential values.`,
	Args:  cobra.NoArgs,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	manager, err := auth.NewManager()
	if err != nil {
		out.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}

	auth.WriteCookieGuide(out.Writer())
	fmt.Println()

	if username == "" {
		fmt.Print("Instagram username: ")
		username, err = readLine(reader)
		if err != nil {
			out.Error("Failed to read username", err)
			os.Exit(1)
		}
	}
	if username == "" {
		out.Error("Username is required", nil)
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", username)
		answer, _ := readLine(reader)
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return
		}
	}

	fmt.Println("\nEnter your cookie values (input is hidden):")

	fmt.Print("sessionid: ")
	sessionID, err := readSecret(reader)
	if err != nil {
		out.Error("Failed to read session ID", err)
		os.Exit(1)
	}
	if len(sessionID) < 20 || !strings.Contains(sessionID, "%") {
		out.Warning("That does not look like a sessionid; it is usually long and contains %3A")
	}

	fmt.Print("csrftoken: ")
	csrfToken, err := readSecret(reader)
	if err != nil {
		out.Error("Failed to read CSRF token", err)
		os.Exit(1)
	}

	fmt.Print("User agent (Enter for default): ")
	userAgent, _ := readLine(reader)

	account := &auth.Account{
		Username:     username,
		SessionID:    sessionID,
		CSRFToken:    csrfToken,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		out.Error("Failed to store credentials", err)
		os.Exit(1)
	}

	masked := auth.SanitizeAccount(account)
	out.Success("Account saved: " + username)
	out.Info("Session ID", masked.SessionID)
	out.Info("CSRF Token", masked.CSRFToken)
	fmt.Println("\nThe most recently saved account is used by default. Pick another with:")
	fmt.Printf("  save-from-inst --account %s\n", username)
}

func runLogout(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	manager, err := auth.NewManager()
	if err != nil {
		out.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	username := strings.TrimSpace(args[0])
	if err := manager.Delete(username); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			out.Error("Account not found", errors.New(username))
		} else {
			out.Error("Failed to remove account", err)
		}
		os.Exit(1)
	}
	out.Success("Account removed: " + username)
}

func runList(cmd *cobra.Command, args []string) {
	out := ui.Stdout()

	manager, err := auth.NewManager()
	if err != nil {
		out.Error("Failed to initialize credential manager", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		out.Error("Failed to list accounts", err)
		os.Exit(1)
	}

	if len(accounts) == 0 {
		out.Info("No stored accounts", "use 'save-from-inst auth login' to add one")
		return
	}

	out.Highlight("Stored Accounts")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("\n%d. %s", i+1, sanitized.Username)
		if i == 0 {
			fmt.Print(out.Dim(" (default)"))
		}
		fmt.Println()
		fmt.Printf("   Session ID: %s\n", sanitized.SessionID)
		fmt.Printf("   CSRF Token: %s\n", sanitized.CSRFToken)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readSecret reads a value without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	return readLine(reader)
}
