package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
)

// ErrBadMessage indicates a wearable message that could not be routed or decoded.
var ErrBadMessage = errors.New("bad device message")

// TopicPrefix is the first topic level wearables publish under:
// carewatch/<device-id>/health and carewatch/<device-id>/safety.
const TopicPrefix = "carewatch"

// Checker runs a reading through a monitor. *monitor.Monitor implements it.
type Checker interface {
	Check(ctx context.Context, userEmail, source string, r monitor.Reading) (monitor.Outcome, error)
}

// UserLookup resolves a device ID to a registered account.
// *db.Client and *db.Memory implement it.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// IngestConfig configures the MQTT subscriber.
type IngestConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// Ingest subscribes to wearable readings and runs them through the monitors.
// The device ID in the topic is the user's email.
type Ingest struct {
	cfg      IngestConfig
	users    UserLookup
	monitors map[string]Checker
	logger   *slog.Logger
	timeout  time.Duration
	client   mqtt.Client
}

// NewIngest creates a subscriber. monitors maps a monitor kind
// (models.MonitorHealth, models.MonitorSafety) to its checker; kinds
// without a checker are rejected, as are device IDs that are not
// registered users.
func NewIngest(cfg IngestConfig, users UserLookup, monitors map[string]Checker, logger *slog.Logger) *Ingest {
	if cfg.ClientID == "" {
		cfg.ClientID = "carewatch-" + uuid.NewString()[:8]
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicPrefix + "/+/+"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{
		cfg:      cfg,
		users:    users,
		monitors: monitors,
		logger:   logger.With("component", "mqtt"),
		timeout:  10 * time.Second,
	}
}

// Start connects to the broker. Subscriptions are renewed on every reconnect.
func (i *Ingest) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(i.cfg.Broker)
	opts.SetClientID(i.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	opts.OnConnect = func(c mqtt.Client) {
		token := c.Subscribe(i.cfg.Topic, 1, i.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			i.logger.Error("subscribe failed", "topic", i.cfg.Topic, "error", err)
			return
		}
		i.logger.Info("subscribed", "topic", i.cfg.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Warn("connection lost", "error", err)
	}

	i.client = mqtt.NewClient(opts)
	if token := i.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", i.cfg.Broker, token.Error())
	}
	i.logger.Info("connected", "broker", i.cfg.Broker, "client_id", i.cfg.ClientID)
	return nil
}

// Stop disconnects, waiting briefly for in-flight work.
func (i *Ingest) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(250)
	}
}

func (i *Ingest) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	out, err := i.Handle(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		i.logger.Warn("device message rejected", "topic", msg.Topic(), "error", err)
		return
	}
	i.logger.Debug("device message", "topic", msg.Topic(), "decision", out.Decision)
}

// Handle routes one message to its monitor.
func (i *Ingest) Handle(ctx context.Context, topic string, payload []byte) (monitor.Outcome, error) {
	email, kind, err := ParseTopic(topic)
	if err != nil {
		return monitor.Outcome{}, err
	}
	checker, ok := i.monitors[kind]
	if !ok || checker == nil {
		return monitor.Outcome{}, fmt.Errorf("%w: no %s monitor loaded", ErrBadMessage, kind)
	}
	u, err := i.users.GetUserByEmail(ctx, email)
	if err != nil {
		return monitor.Outcome{}, fmt.Errorf("look up device %s: %w", email, err)
	}
	if u == nil {
		return monitor.Outcome{}, fmt.Errorf("%w: unknown device %q", ErrBadMessage, email)
	}
	reading, err := DecodeReading(kind, payload)
	if err != nil {
		return monitor.Outcome{}, err
	}
	return checker.Check(ctx, email, "mqtt", reading)
}

// ParseTopic splits carewatch/<device-id>/<kind>.
func ParseTopic(topic string) (deviceID, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] == "" {
		return "", "", fmt.Errorf("%w: unexpected topic %q", ErrBadMessage, topic)
	}
	switch parts[2] {
	case models.MonitorHealth, models.MonitorSafety:
		return strings.ToLower(parts[1]), parts[2], nil
	}
	return "", "", fmt.Errorf("%w: unknown monitor %q", ErrBadMessage, parts[2])
}

// DecodeReading decodes a JSON payload into the reading type for kind.
// Unknown fields are rejected.
func DecodeReading(kind string, payload []byte) (monitor.Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	switch kind {
	case models.MonitorHealth:
		var r monitor.HealthReading
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
		}
		return r, nil
	case models.MonitorSafety:
		var r monitor.SafetyReading
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: unknown monitor %q", ErrBadMessage, kind)
}
