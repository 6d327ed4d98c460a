package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	token, err := loadToken(path)
	require.NoError(t, err)
	assert.Empty(t, token, "missing file means logged out")

	require.NoError(t, saveToken(path, "abc.def.ghi"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	require.NoError(t, removeToken(path))
	require.NoError(t, removeToken(path), "removing twice is fine")
}

func TestReadLine(t *testing.T) {
	line, err := readLine(strings.NewReader("hunter22\r\nrest"))
	require.NoError(t, err)
	assert.Equal(t, "hunter22", line)

	line, err = readLine(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", line)

	_, err = readLine(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseWhen(t *testing.T) {
	got, err := parseWhen("2026-03-14 08:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 8, 30, 0, 0, time.Local), got)

	_, err = parseWhen("tomorrow")
	assert.Error(t, err)
}

func TestRenderOutcome(t *testing.T) {
	safe := renderOutcome(defaultTheme, &monitor.Outcome{
		Monitor:  models.MonitorHealth,
		Decision: ensemble.DecisionSafe,
		Votes:    []ensemble.Vote{0, 1, 0},
	})
	assert.Contains(t, safe, "Votes: 0 1 0")
	assert.Contains(t, safe, "Final Decision (Majority Vote): ")
	assert.Contains(t, safe, "SAFE")
	assert.NotContains(t, safe, models.SpokenAlert)

	alerted := renderOutcome(defaultTheme, &monitor.Outcome{
		Monitor:  models.MonitorSafety,
		Decision: ensemble.DecisionAlert,
		Votes:    []ensemble.Vote{1, 1, 0},
		Spoken:   models.SpokenAlert,
	})
	assert.Contains(t, alerted, "ALERT")
	assert.Contains(t, alerted, models.SpokenAlert)
}

func TestPrintStats(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordTiming(metrics.OpDecideHealth, 4*time.Millisecond)
	c.RecordDecision(models.MonitorHealth, true)
	snap := c.Snapshot()

	var buf bytes.Buffer
	printStats(&buf, &snap)
	out := buf.String()
	assert.Contains(t, out, "health monitor: 1 alert, 0 safe")
	assert.Contains(t, out, "Health decisions:")
	assert.NotContains(t, out, "Device scans")
}

func TestPrintReminders(t *testing.T) {
	var buf bytes.Buffer
	printReminders(&buf, nil)
	assert.Equal(t, "No reminders found.\n", buf.String())

	buf.Reset()
	printReminders(&buf, []models.ReminderView{{
		ID: "r1", Type: models.ReminderMeal, Timestamp: time.Now(), Message: "Lunch", Sent: true,
	}})
	assert.Contains(t, buf.String(), "Lunch")
	assert.Contains(t, buf.String(), "Yes")
}

func TestWatchModel(t *testing.T) {
	m := newWatchModel()
	assert.Contains(t, m.renderContent(), "No alerts so far.")

	var model tea.Model = m
	for i := range maxWatchedAlerts + 2 {
		model, _ = model.Update(alertMsg(models.AlertEvent{
			ID:           "a",
			Monitor:      models.MonitorSafety,
			Decision:     "ALERT",
			Notification: "alert " + string(rune('A'+i)),
			CreatedAt:    time.Now(),
		}))
	}
	wm := model.(watchModel)
	require.Len(t, wm.alerts, maxWatchedAlerts)
	assert.Equal(t, "alert L", wm.alerts[0].Notification, "newest first")
	assert.Contains(t, wm.renderContent(), "alert L")

	model, cmd := model.Update(watchDoneMsg{err: errors.New("connection reset")})
	require.NotNil(t, cmd)
	assert.Contains(t, model.(watchModel).renderContent(), "connection reset")
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"login"}, {"caretaker", "add"}, {"reminder", "import"}, {"check", "safety"},
		{"alerts", "watch"}, {"devices", "scan"}, {"stats"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
