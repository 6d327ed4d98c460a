// Package device discovers nearby wearables and ingests their readings.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"tinygo.org/x/bluetooth"
)

// ErrScanUnavailable indicates the host has no usable Bluetooth adapter.
var ErrScanUnavailable = errors.New("bluetooth scan unavailable")

// Scanner lists nearby devices.
type Scanner interface {
	Scan(ctx context.Context, timeout time.Duration) ([]models.Device, error)
}

// BLEScanner scans with the host's default Bluetooth LE adapter.
// Scans are serialized; the adapter supports one at a time.
type BLEScanner struct {
	adapter *bluetooth.Adapter
	metrics *metrics.Collector

	mu      sync.Mutex
	enabled bool
}

// NewBLEScanner creates a scanner on the default adapter.
func NewBLEScanner(mc *metrics.Collector) *BLEScanner {
	return &BLEScanner{adapter: bluetooth.DefaultAdapter, metrics: mc}
}

// Scan listens for advertisements until the timeout or ctx ends.
func (s *BLEScanner) Scan(ctx context.Context, timeout time.Duration) ([]models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if !s.enabled {
		if err := s.adapter.Enable(); err != nil {
			s.metrics.RecordError(metrics.OpDeviceScan, time.Since(start))
			return nil, fmt.Errorf("%w: %w", ErrScanUnavailable, err)
		}
		s.enabled = true
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seen := newSightings()
	done := make(chan error, 1)
	go func() {
		done <- s.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			seen.add(models.Device{
				Name:    r.LocalName(),
				Address: r.Address.String(),
				RSSI:    r.RSSI,
			})
		})
	}()

	var err error
	select {
	case <-ctx.Done():
		if stopErr := s.adapter.StopScan(); stopErr != nil {
			slog.Debug("stop scan", "error", stopErr)
		}
		err = <-done
	case err = <-done:
	}
	if err != nil {
		s.metrics.RecordError(metrics.OpDeviceScan, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrScanUnavailable, err)
	}

	s.metrics.RecordTiming(metrics.OpDeviceScan, time.Since(start))
	devices := seen.list()
	slog.Info("device scan complete", "found", len(devices), "duration_ms", time.Since(start).Milliseconds())
	return devices, nil
}

// sightings de-duplicates advertisements by address, keeping the
// strongest signal and the first non-empty name.
type sightings struct {
	mu      sync.Mutex
	devices map[string]models.Device
}

func newSightings() *sightings {
	return &sightings{devices: make(map[string]models.Device)}
}

func (s *sightings) add(d models.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.devices[d.Address]
	if !ok {
		s.devices[d.Address] = d
		return
	}
	if d.RSSI > prev.RSSI {
		prev.RSSI = d.RSSI
	}
	if prev.Name == "" {
		prev.Name = d.Name
	}
	s.devices[d.Address] = prev
}

// list returns devices strongest first, then by address.
func (s *sightings) list() []models.Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RSSI != out[j].RSSI {
			return out[i].RSSI > out[j].RSSI
		}
		return out[i].Address < out[j].Address
	})
	return out
}
