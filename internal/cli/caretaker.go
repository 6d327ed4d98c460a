package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/spf13/cobra"
)

var caretakerInput models.CaretakerInput

var caretakerCmd = &cobra.Command{
	Use:     "caretaker",
	Aliases: []string{"caretakers"},
	Short:   "Manage the people alerted when a monitor raises an alert",
}

var caretakerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a caretaker",
	Long: `Add a caretaker.

Examples:
  carewatch caretaker add --name "Ravi Rao" --contact 555-0199 --relation Son`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, err := apiClient.AddCaretaker(context.Background(), caretakerInput)
		if err != nil {
			return fmt.Errorf("add caretaker: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added caretaker %s (%s).\n", ct.Name, ct.ID)
		return nil
	},
}

var caretakerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List caretakers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := apiClient.ListCaretakers(context.Background())
		if err != nil {
			return fmt.Errorf("list caretakers: %w", err)
		}
		printCaretakers(cmd, list)
		return nil
	},
}

var caretakerDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a caretaker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeleteCaretaker(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete caretaker: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Caretaker removed.")
		return nil
	},
}

func init() {
	f := caretakerAddCmd.Flags()
	f.StringVar(&caretakerInput.Name, "name", "", "caretaker name (required)")
	f.StringVar(&caretakerInput.Contact, "contact", "", "phone number or email (required)")
	f.StringVar(&caretakerInput.Relation, "relation", "", "relation to you, e.g. Son (required)")
	_ = caretakerAddCmd.MarkFlagRequired("name")
	_ = caretakerAddCmd.MarkFlagRequired("contact")
	_ = caretakerAddCmd.MarkFlagRequired("relation")

	caretakerCmd.AddCommand(caretakerAddCmd)
	caretakerCmd.AddCommand(caretakerListCmd)
	caretakerCmd.AddCommand(caretakerDeleteCmd)
}

func printCaretakers(cmd *cobra.Command, list []models.CaretakerView) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No caretakers yet. Add one with 'carewatch caretaker add'.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCONTACT\tRELATION")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Contact, c.Relation)
	}
	_ = tw.Flush()
}
