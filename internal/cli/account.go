package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/raphaelgruber/carewatch/internal/client"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/spf13/cobra"
)

var signupInput models.SignupInput

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account. The password is prompted for.

Examples:
  carewatch signup --name "Asha Rao" --age 78 --email asha@example.com \
    --contact 555-0100 --city Pune`,
	Args: cobra.NoArgs,
	RunE: runSignup,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and save the session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := removeToken(cfg.TokenFile); err != nil {
			return fmt.Errorf("remove session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user's profile",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	f := signupCmd.Flags()
	f.StringVar(&signupInput.Name, "name", "", "full name (required)")
	f.IntVar(&signupInput.Age, "age", 0, "age in years")
	f.StringVar(&signupInput.Email, "email", "", "email address (required)")
	f.StringVar(&signupInput.ContactNumber, "contact", "", "contact number (required)")
	f.StringVar(&signupInput.City, "city", "", "city (required)")
	_ = signupCmd.MarkFlagRequired("name")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("contact")
	_ = signupCmd.MarkFlagRequired("city")
}

func runSignup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pw, err := promptPassword(cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(cmd.ErrOrStderr(), "Confirm password: ")
	if err != nil {
		return err
	}
	if pw != confirm {
		return errors.New("passwords do not match")
	}
	signupInput.Password = pw

	p, err := apiClient.Signup(ctx, signupInput)
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run 'carewatch login %s' to start.\n", p.Name, p.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pw, err := promptPassword(cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}
	sess, err := apiClient.Login(ctx, args[0], pw)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := saveToken(cfg.TokenFile, sess.Token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s.\n", sess.Profile.Name)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	p, err := apiClient.Me(context.Background())
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w; run 'carewatch login <email>'", err)
	}
	if err != nil {
		return err
	}
	printProfile(cmd.OutOrStdout(), p)
	return nil
}
