package server

import (
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/carewatch/internal/device"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
)

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return false
	}
	return true
}

// --- accounts ---

func (s *Server) signup(c *gin.Context) {
	var in models.SignupInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := s.deps.Accounts.Signup(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) login(c *gin.Context) {
	var in models.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := s.deps.Accounts.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) me(c *gin.Context) {
	p, err := s.deps.Accounts.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- caretakers ---

func (s *Server) listCaretakers(c *gin.Context) {
	list, err := s.deps.Caretakers.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]models.CaretakerView, len(list))
	for i := range list {
		out[i] = list[i].View()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addCaretaker(c *gin.Context) {
	var in models.CaretakerInput
	if !bindJSON(c, &in) {
		return
	}
	ct, err := s.deps.Caretakers.Add(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct.View())
}

func (s *Server) deleteCaretaker(c *gin.Context) {
	if err := s.deps.Caretakers.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- reminders ---

func (s *Server) reminderFilter(c *gin.Context) (models.ReminderFilter, error) {
	var f models.ReminderFilter
	for _, raw := range c.QueryArray("type") {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			t, ok := models.ParseReminderType(name)
			if !ok {
				return f, fmt.Errorf("%w: unknown reminder type %q", errBadRequest, name)
			}
			f.Types = append(f.Types, t)
		}
	}

	var err error
	if f.Sent, err = models.ParseTristate(c.Query("sent")); err != nil {
		return f, fmt.Errorf("%w: sent: %w", errBadRequest, err)
	}
	if f.Acknowledged, err = models.ParseTristate(c.Query("ack")); err != nil {
		return f, fmt.Errorf("%w: ack: %w", errBadRequest, err)
	}
	return f, nil
}

// listReminders serves one calendar day (today unless ?date= is given),
// or every reminder with ?all=true.
func (s *Server) listReminders(c *gin.Context) {
	filter, err := s.reminderFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	var list []models.Reminder
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		list, err = s.deps.Reminders.List(ctx, currentUser(c), filter)
	} else {
		day := time.Now()
		if d := c.Query("date"); d != "" {
			if day, err = s.deps.Reminders.ParseDate(d); err != nil {
				respondError(c, err)
				return
			}
		}
		list, err = s.deps.Reminders.ListDay(ctx, currentUser(c), day, filter)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminderViews(list))
}

func reminderViews(list []models.Reminder) []models.ReminderView {
	out := make([]models.ReminderView, len(list))
	for i := range list {
		out[i] = list[i].View()
	}
	return out
}

func (s *Server) addReminder(c *gin.Context) {
	var in models.ReminderInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := s.deps.Reminders.Add(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r.View())
}

func (s *Server) ackReminder(c *gin.Context) {
	r, err := s.deps.Reminders.Ack(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r.View())
}

// importReminders accepts the sheet as a raw text/csv body or as the
// "file" field of a multipart form.
func (s *Server) importReminders(c *gin.Context) {
	body := c.Request.Body
	if mt, _, _ := mime.ParseMediaType(c.ContentType()); mt == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			respondError(c, fmt.Errorf("%w: file: %w", errBadRequest, err))
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()
		body = f
	}

	res, err := s.deps.Reminders.Import(c.Request.Context(), currentUser(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) exportReminders(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="reminders.csv"`)
	c.Status(http.StatusOK)
	if err := s.deps.Reminders.Export(c.Request.Context(), currentUser(c), c.Writer); err != nil {
		// Headers are already sent; the log is all that is left.
		_ = c.Error(err)
		s.logger.Error("export reminders", "user", currentUser(c), "error", err)
	}
}

// --- monitors ---

type monitorInfo struct {
	Kind     string   `json:"kind"`
	Features []string `json:"features"`
}

func (s *Server) listMonitors(c *gin.Context) {
	out := make([]monitorInfo, 0, len(s.deps.Monitors))
	for kind, m := range s.deps.Monitors {
		out = append(out, monitorInfo{Kind: kind, Features: m.Schema().Features})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	c.JSON(http.StatusOK, out)
}

func (s *Server) checkHandler(m *monitor.Monitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reading monitor.Reading
		switch m.Kind() {
		case models.MonitorSafety:
			var r monitor.SafetyReading
			if !bindJSON(c, &r) {
				return
			}
			reading = r
		default:
			var r monitor.HealthReading
			if !bindJSON(c, &r) {
				return
			}
			reading = r
		}

		out, err := m.Check(c.Request.Context(), currentUser(c), "api", reading)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// --- alerts ---

func (s *Server) listAlerts(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(c, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, 500)
	}
	list, err := s.deps.Alerts.List(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]models.AlertEvent, len(list))
	for i := range list {
		out[i] = list[i].Event()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) watchAlerts(c *gin.Context) {
	if err := s.deps.Hub.Serve(c.Writer, c.Request, currentUser(c)); err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
	}
}

// --- devices & stats ---

func (s *Server) scanDevices(c *gin.Context) {
	if s.deps.Scanner == nil {
		respondError(c, device.ErrScanUnavailable)
		return
	}
	timeout := s.deps.ScanTimeout
	if v := c.Query("timeout"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			respondError(c, fmt.Errorf("%w: timeout %q", errBadRequest, v))
			return
		}
		timeout = min(d, maxScanTimeout)
	}

	devices, err := s.deps.Scanner.Scan(c.Request.Context(), timeout)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Metrics.Snapshot())
}
