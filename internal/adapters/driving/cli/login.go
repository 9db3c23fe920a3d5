package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/velosync/velosync-cli/internal/adapters/driven/config/file"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store platform credentials",
	Long: `Prompts for iGPSport and Garmin Connect credentials and stores them
in the configuration file. Credentials set via environment variables
take precedence over the stored values.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

//nolint:errcheck // CLI interactive flow
func runLogin(cmd *cobra.Command, _ []string) error {
	dir, err := resolveConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}

	// Start from the existing config so tunables survive a re-login.
	cfg, err := configfile.Load(dir)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("iGPSport account")
	cmd.Println("----------------")
	cmd.Print("Username: ")
	if input := readLine(reader); input != "" {
		cfg.SourceUsername = input
	}
	cmd.Print("Password: ")
	if input := readPassword(); input != "" {
		cfg.SourcePassword = input
	}
	cmd.Println()

	cmd.Println("\nGarmin Connect account")
	cmd.Println("----------------------")
	cmd.Print("Email: ")
	if input := readLine(reader); input != "" {
		cfg.DestEmail = input
	}
	cmd.Print("Password: ")
	if input := readPassword(); input != "" {
		cfg.DestPassword = input
	}
	cmd.Println()
	cmd.Printf("\nDomain [%s]: ", cfg.DestDomain)
	if input := readLine(reader); input != "" {
		cfg.DestDomain = input
	}

	if cfg.SourceUsername == "" || cfg.SourcePassword == "" ||
		cfg.DestEmail == "" || cfg.DestPassword == "" {
		return errors.New("all credentials are required")
	}

	if err := configfile.Save(dir, cfg); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}

	cmd.Println("\nCredentials saved. Run 'velosync sync' to start syncing.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
