package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/raphaelgruber/carewatch/internal/client"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/spf13/cobra"
)

var (
	reminderType    string
	reminderAt      string
	reminderMessage string

	reminderQuery client.ReminderQuery
	exportOutput  string
)

var reminderCmd = &cobra.Command{
	Use:     "reminder",
	Aliases: []string{"reminders"},
	Short:   "Manage daily reminders",
}

var reminderAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule a reminder",
	Long: `Schedule a reminder. Types: Medication, Exercise, Meal, Appointment, Other.

Examples:
  carewatch reminder add --type medication --at "2026-03-14 08:00" --message "Blood pressure pill"`,
	Args: cobra.NoArgs,
	RunE: runReminderAdd,
}

var reminderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders for a day",
	Long: `List reminders for a day (today by default).

Examples:
  carewatch reminder list
  carewatch reminder list --date 2026-03-14 --type meal,medication
  carewatch reminder list --all --ack no`,
	Args: cobra.NoArgs,
	RunE: runReminderList,
}

var reminderAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := apiClient.AckReminder(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("acknowledge reminder: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged: %s\n", r.Message)
		return nil
	},
}

var reminderImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import reminders from a CSV sheet",
	Long: `Import reminders from a CSV sheet with the columns
Device-ID/User-ID, Timestamp, Reminder Type and optionally
Reminder Sent (Yes/No), Acknowledged (Yes/No), Message.
Rows for other users are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runReminderImport,
}

var reminderExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all reminders as CSV",
	Args:  cobra.NoArgs,
	RunE:  runReminderExport,
}

func init() {
	f := reminderAddCmd.Flags()
	f.StringVarP(&reminderType, "type", "t", "", "reminder type (required)")
	f.StringVar(&reminderAt, "at", "", `when, "YYYY-MM-DD HH:MM" in local time (required)`)
	f.StringVarP(&reminderMessage, "message", "m", "", "message shown with the reminder")
	_ = reminderAddCmd.MarkFlagRequired("type")
	_ = reminderAddCmd.MarkFlagRequired("at")

	lf := reminderListCmd.Flags()
	lf.StringVar(&reminderQuery.Date, "date", "", "day to list, YYYY-MM-DD (default today)")
	lf.BoolVar(&reminderQuery.All, "all", false, "list every reminder instead of one day")
	lf.StringSliceVarP(&reminderQuery.Types, "type", "t", nil, "filter by types")
	lf.StringVar(&reminderQuery.Sent, "sent", "all", "filter by sent: all, yes, no")
	lf.StringVar(&reminderQuery.Ack, "ack", "all", "filter by acknowledged: all, yes, no")

	reminderExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	reminderCmd.AddCommand(reminderAddCmd)
	reminderCmd.AddCommand(reminderListCmd)
	reminderCmd.AddCommand(reminderAckCmd)
	reminderCmd.AddCommand(reminderImportCmd)
	reminderCmd.AddCommand(reminderExportCmd)
}

// parseWhen reads a local date and time as typed on the command line.
func parseWhen(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", time.DateTime, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf(`invalid time %q, expected "YYYY-MM-DD HH:MM"`, s)
}

func runReminderAdd(cmd *cobra.Command, args []string) error {
	t, ok := models.ParseReminderType(reminderType)
	if !ok {
		return fmt.Errorf("unknown reminder type %q", reminderType)
	}
	at, err := parseWhen(reminderAt)
	if err != nil {
		return err
	}

	r, err := apiClient.AddReminder(context.Background(), models.ReminderInput{
		Type:      t,
		Timestamp: at,
		Message:   reminderMessage,
	})
	if err != nil {
		return fmt.Errorf("add reminder: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s reminder for %s (%s).\n",
		r.Type, r.Timestamp.Local().Format("Mon 2 Jan 15:04"), r.ID)
	return nil
}

func runReminderList(cmd *cobra.Command, args []string) error {
	list, err := apiClient.ListReminders(context.Background(), reminderQuery)
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}
	printReminders(cmd.OutOrStdout(), list)
	return nil
}

func printReminders(w io.Writer, list []models.ReminderView) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No reminders found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tTYPE\tSENT\tACK\tMESSAGE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.Type,
			models.YesNo(r.Sent),
			models.YesNo(r.Acknowledged),
			r.Message,
		)
	}
	_ = tw.Flush()
}

func runReminderImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}
	defer f.Close()

	res, err := apiClient.ImportReminders(context.Background(), f)
	if err != nil {
		return fmt.Errorf("import reminders: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d reminders", res.Imported)
	if res.Skipped > 0 || res.Foreign > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d unreadable rows skipped, %d rows for other users ignored)", res.Skipped, res.Foreign)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ".")
	return nil
}

func runReminderExport(cmd *cobra.Command, args []string) error {
	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := apiClient.ExportReminders(context.Background(), w); err != nil {
		return fmt.Errorf("export reminders: %w", err)
	}
	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", exportOutput)
	}
	return nil
}
