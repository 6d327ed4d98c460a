package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/spf13/cobra"
)

var (
	alertsLimit int
	scanTimeout time.Duration
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show alerts raised by the monitors",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent alerts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := apiClient.ListAlerts(context.Background(), alertsLimit)
		if err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}
		printAlerts(cmd, list)
		return nil
	},
}

var alertsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch alerts live",
	Long: `Open a live view that shows alerts as the monitors raise them,
including alerts from wearables. Press q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunWatch(apiClient)
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Find wearables near the server",
}

var devicesScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for nearby Bluetooth devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, defaultTheme.hintStyle().Render(fmt.Sprintf("Scanning for %s...", scanTimeout)))

		devices, err := apiClient.ScanDevices(context.Background(), scanTimeout)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(devices) == 0 {
			fmt.Fprintln(out, "No devices found.")
			return nil
		}
		for _, d := range devices {
			fmt.Fprintf(out, "%-24s %s  %d dBm\n", d.DisplayName(), d.Address, d.RSSI)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := apiClient.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("get server stats: %w", err)
		}
		printStats(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	alertsListCmd.Flags().IntVarP(&alertsLimit, "limit", "n", 20, "max results")
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsWatchCmd)

	devicesScanCmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Second, "how long to listen for advertisements")
	devicesCmd.AddCommand(devicesScanCmd)
}

func printAlerts(cmd *cobra.Command, list []models.AlertEvent) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No alerts.")
		return
	}
	for _, ev := range list {
		fmt.Fprint(out, renderAlert(defaultTheme, ev))
	}
}
