// Package cli provides the command-line interface for carewatch.
package cli

import (
	"fmt"

	"github.com/raphaelgruber/carewatch/internal/client"
	"github.com/raphaelgruber/carewatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "carewatch",
	Short: "Elder-care health and safety monitoring",
	Long: `Carewatch watches over elderly users: it runs vital signs and motion
readings through an ensemble of classifiers, alerts caretakers when the
majority votes ALERT, and keeps the user's daily reminders.

Log in once with 'carewatch login'; the session is kept until it expires
or you run 'carewatch logout'.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		token, err := loadToken(cfg.TokenFile)
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		apiClient = client.New(cfg.ServerURL, token)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $CAREWATCH_SERVER_URL)")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(caretakerCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(statsCmd)
}
