package alert

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/carewatch/internal/llm"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutContinuesPastFailures(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	f := Fanout{
		SinkFunc(func(_ context.Context, a *models.Alert) error {
			calls = append(calls, "first")
			a.Notification = "set by first"
			return boom
		}),
		nil,
		SinkFunc(func(_ context.Context, a *models.Alert) error {
			calls = append(calls, "second:"+a.Notification)
			return nil
		}),
	}

	err := f.Notify(context.Background(), &models.Alert{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second:set by first"}, calls)

	assert.NoError(t, Fanout{}.Notify(context.Background(), &models.Alert{}))
}

type fakeWriter struct {
	text string
	err  error
}

func (w fakeWriter) ComposeAlert(context.Context, llm.AlertFacts) (string, error) {
	return w.text, w.err
}

func TestComposer(t *testing.T) {
	facts := llm.AlertFacts{UserName: "Asha", Monitor: "safety", Readings: "fall_detected=1"}
	want := "Asha's safety monitor raised an alert. Readings: fall_detected=1. Please check on them as soon as possible."

	t.Run("no writer", func(t *testing.T) {
		c := NewComposer(nil, nil, nil)
		assert.Equal(t, want, c.Compose(context.Background(), facts))
	})

	t.Run("writer text", func(t *testing.T) {
		c := NewComposer(fakeWriter{text: "Check on Asha."}, nil, nil)
		assert.Equal(t, "Check on Asha.", c.Compose(context.Background(), facts))
	})

	t.Run("writer failure falls back", func(t *testing.T) {
		mc := metrics.NewCollector()
		c := NewComposer(fakeWriter{err: errors.New("down")}, mc, nil)
		assert.Equal(t, want, c.Compose(context.Background(), facts))
		assert.Equal(t, int64(1), mc.Snapshot().Operations[metrics.OpAlertCompose].Errors)
	})

	t.Run("empty text falls back", func(t *testing.T) {
		c := NewComposer(fakeWriter{}, nil, nil)
		assert.Equal(t, want, c.Compose(context.Background(), facts))
	})
}

func TestTemplateWithoutName(t *testing.T) {
	got := Template(llm.AlertFacts{Monitor: "health"})
	assert.Equal(t, "Your contact's health monitor raised an alert. Please check on them as soon as possible.", got)
}

func TestFormatReadings(t *testing.T) {
	got := FormatReadings([]string{"heart_rate", "oxygen"}, []float64{72, 97.5, 3})
	assert.Equal(t, "heart_rate=72, oxygen=97.5, f2=3", got)
}

func TestHubPublish(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=asha@example.com"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers("asha@example.com") == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, hub.Publish("someone@else.com", models.AlertEvent{Monitor: "health"}))

	a := &models.Alert{
		UserEmail:    "asha@example.com",
		Monitor:      "safety",
		Decision:     "ALERT",
		Votes:        []int{1, 1, 0},
		Notification: "check now",
	}
	require.NoError(t, hub.Notify(context.Background(), a))

	var ev models.AlertEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "safety", ev.Monitor)
	assert.Equal(t, "ALERT", ev.Decision)
	assert.Equal(t, []int{1, 1, 0}, ev.Votes)
	assert.Equal(t, "check now", ev.Notification)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.Subscribers("asha@example.com") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
