package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
)

// Theme holds the color scheme for CLI output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) safeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) alertStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) decision(d ensemble.Decision) string {
	if d.IsAlert() {
		return t.alertStyle().Render(string(d))
	}
	return t.safeStyle().Render(string(d))
}

// renderOutcome formats a monitor check for the terminal.
func renderOutcome(t Theme, out *monitor.Outcome) string {
	var b strings.Builder
	votes := make([]string, len(out.Votes))
	for i, v := range out.Votes {
		votes[i] = fmt.Sprint(int(v))
	}
	fmt.Fprintf(&b, "%s %s\n", t.statusStyle().Render("["+out.Monitor+"]"), "Votes: "+strings.Join(votes, " "))
	fmt.Fprintf(&b, "Final Decision (Majority Vote): %s\n", t.decision(out.Decision))
	if out.Spoken != "" {
		fmt.Fprintf(&b, "%s\n", t.alertStyle().Render(out.Spoken))
	}
	if out.AlertID != "" && verbose {
		fmt.Fprintf(&b, "%s\n", t.hintStyle().Render("alert "+out.AlertID))
	}
	return b.String()
}

// renderAlert formats one alert as a short block.
func renderAlert(t Theme, ev models.AlertEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n",
		t.hintStyle().Render(ev.CreatedAt.Local().Format("2006-01-02 15:04")),
		t.statusStyle().Render(ev.Monitor),
		t.decision(ensemble.Decision(ev.Decision)),
	)
	if ev.Notification != "" {
		fmt.Fprintf(&b, "  %s\n", ev.Notification)
	}
	if len(ev.NotifiedTo) > 0 {
		fmt.Fprintf(&b, "  Notified: %s\n", strings.Join(ev.NotifiedTo, ", "))
	}
	return b.String()
}

func printProfile(w io.Writer, p *models.Profile) {
	fmt.Fprintf(w, "Name:    %s\n", p.Name)
	fmt.Fprintf(w, "Email:   %s\n", p.Email)
	fmt.Fprintf(w, "Age:     %d\n", p.Age)
	fmt.Fprintf(w, "Contact: %s\n", p.ContactNumber)
	fmt.Fprintf(w, "City:    %s\n", p.City)
}

// printStats displays server runtime statistics.
func printStats(w io.Writer, s *metrics.Snapshot) {
	fmt.Fprintf(w, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", s.UptimeSeconds)

	for _, kind := range []string{models.MonitorHealth, models.MonitorSafety} {
		d, ok := s.Decisions[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s monitor: %d alert, %d safe\n", kind, d.Alert, d.Safe)
	}

	labels := []struct{ op, title string }{
		{metrics.OpDecideHealth, "Health decisions"},
		{metrics.OpDecideSafety, "Safety decisions"},
		{metrics.OpAlertCompose, "Alert notifications"},
		{metrics.OpDBQuery, "DB Query"},
		{metrics.OpDeviceScan, "Device scans"},
	}
	for _, l := range labels {
		if op := s.Operations[l.op]; op != nil {
			fmt.Fprintf(w, "\n%s:\n", l.title)
			printOpStats(w, op)
		}
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
