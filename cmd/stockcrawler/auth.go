package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"stockcrawler/pkg/auth"
)

// keyedProviders lists the providers that take an API key
var keyedProviders = []string{"alphavantage"}

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider API keys",
	Long: `Manage API keys for market data providers that need one.

Keys are kept in the system keychain when one is available and otherwise in an
encrypted file under ~/.config/stockcrawler. The STOCKCRAWLER_<PROVIDER>_API_KEY
environment variable is always consulted as a last resort.`,
}

// setKeyCmd represents the auth set-key command
var setKeyCmd = &cobra.Command{
	Use:   "set-key [provider]",
	Short: "Store an API key (default provider: alphavantage)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSetKey,
}

// removeKeyCmd represents the auth remove-key command
var removeKeyCmd = &cobra.Command{
	Use:   "remove-key [provider]",
	Short: "Remove a stored API key (default provider: alphavantage)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRemoveKey,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each provider's API key is stored",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(setKeyCmd)
	authCmd.AddCommand(removeKeyCmd)
	authCmd.AddCommand(statusCmd)
}

func providerArg(args []string) string {
	if len(args) == 1 {
		return strings.ToLower(strings.TrimSpace(args[0]))
	}
	return keyedProviders[0]
}

func runSetKey(cmd *cobra.Command, args []string) error {
	provider := providerArg(args)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	fmt.Printf("API key for %s: ", provider)
	key, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	if err := manager.Store(&auth.Credential{Provider: provider, APIKey: key}); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	console := newConsole()
	where, _ := manager.Locate(provider)
	console.PrintSuccess(fmt.Sprintf("API key for %s stored (%s)", provider, where))
	return nil
}

func runRemoveKey(cmd *cobra.Command, args []string) error {
	provider := providerArg(args)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	console := newConsole()
	if err := manager.Delete(provider); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			console.PrintWarning("No stored API key for " + provider)
			return nil
		}
		return fmt.Errorf("failed to remove API key: %w", err)
	}

	console.PrintSuccess("API key for " + provider + " removed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	console := newConsole()
	for _, provider := range keyedProviders {
		where, ok := manager.Locate(provider)
		if !ok {
			console.PrintInfo(provider, "not configured")
			continue
		}
		console.PrintInfo(provider, fmt.Sprintf("%s (%s)", auth.MaskKey(manager.APIKey(provider)), where))
	}
	return nil
}

// readSecret reads a line from stdin without echoing when stdin is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
