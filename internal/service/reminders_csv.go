package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/carewatch/internal/models"
)

// Reminder sheet columns.
const (
	ColDeviceID = "Device-ID/User-ID"
	ColTime     = "Timestamp"
	ColType     = "Reminder Type"
	ColSent     = "Reminder Sent (Yes/No)"
	ColAck      = "Acknowledged (Yes/No)"
	ColMessage  = "Message"
)

var exportHeader = []string{ColDeviceID, ColTime, ColType, ColSent, ColAck, ColMessage}

// timestamp layouts accepted on import, tried in order
var importLayouts = []string{
	time.RFC3339,
	time.DateTime,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 03:04 PM",
	time.DateOnly,
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Foreign  int `json:"foreign"`
}

// Import reads a reminder sheet and stores the rows that belong to the user.
// Rows for other device IDs are counted as foreign; rows with an unreadable
// timestamp or type are counted as skipped.
func (s *ReminderService) Import(ctx context.Context, userEmail string, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColDeviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrInvalidInput, err)
	}
	cols := indexColumns(header)
	for _, required := range []string{ColDeviceID, ColTime, ColType} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	res := &ImportResult{}
	var batch []models.ReminderInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidInput, line, err)
		}

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		if !strings.EqualFold(get(ColDeviceID), userEmail) {
			res.Foreign++
			continue
		}

		in, err := s.parseRow(get)
		if err != nil {
			slog.Debug("skipping reminder row", "line", line, "error", err)
			res.Skipped++
			continue
		}
		batch = append(batch, in)
	}

	created, err := s.store.CreateReminders(ctx, userEmail, batch)
	if err != nil {
		return nil, fmt.Errorf("import reminders: %w", err)
	}
	res.Imported = len(created)
	slog.Info("reminders imported", "user", userEmail, "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func (s *ReminderService) parseRow(get func(string) string) (models.ReminderInput, error) {
	ts, err := s.parseTimestamp(get(ColTime))
	if err != nil {
		return models.ReminderInput{}, err
	}
	t, ok := models.ParseReminderType(get(ColType))
	if !ok {
		return models.ReminderInput{}, fmt.Errorf("%w: %q", ErrInvalidReminderType, get(ColType))
	}
	sent, err := models.ParseYesNo(get(ColSent))
	if err != nil {
		return models.ReminderInput{}, err
	}
	ack, err := models.ParseYesNo(get(ColAck))
	if err != nil {
		return models.ReminderInput{}, err
	}

	msg := get(ColMessage)
	if msg == "" {
		msg = string(t)
	}
	return models.ReminderInput{Type: t, Timestamp: ts, Message: msg, Sent: sent, Ack: ack}, nil
}

func (s *ReminderService) parseTimestamp(v string) (time.Time, error) {
	for _, layout := range importLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unreadable timestamp %q", v)
}

// Export writes all of the user's reminders as a reminder sheet.
func (s *ReminderService) Export(ctx context.Context, userEmail string, w io.Writer) error {
	rs, err := s.store.ListReminders(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("export reminders: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("export reminders: %w", err)
	}
	for _, r := range rs {
		if err := cw.Write([]string{
			r.DeviceID,
			r.Timestamp.In(s.loc).Format(time.DateTime),
			string(r.Type),
			models.YesNo(r.Sent),
			models.YesNo(r.Acknowledged),
			r.Message,
		}); err != nil {
			return fmt.Errorf("export reminders: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for _, known := range exportHeader {
			if strings.EqualFold(h, known) {
				cols[known] = i
			}
		}
	}
	return cols
}
