package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/leonardpitzu/it600d/internal/infrastructure/mqtt"
	"github.com/leonardpitzu/it600d/internal/it600"
)

// bridgeID identifies this bridge in health and LWT payloads.
const bridgeID = "it600"

// commandTimeout bounds the gateway write for one MQTT command.
const commandTimeout = 10 * time.Second

// Bridge connects the device model to MQTT: retained state publishes on
// change, command intake with per-command acknowledgments, and periodic
// health reporting.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	mqtt    MQTTClient
	devices DeviceSource
	sender  CommandSender
	health  *HealthReporter
	topics  mqtt.Topics
	qos     byte

	commandsReceived atomic.Uint64
	commandsFailed   atomic.Uint64

	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the broker surface the bridge needs. Satisfied by an
// adapter over the infrastructure client, and by fakes in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// DeviceSource provides read access to the device model.
// Satisfied by *it600.Model.
type DeviceSource interface {
	Get(id string) (*it600.Device, error)
	List() []it600.Device
}

// CommandSender executes device commands. Satisfied by *it600.Dispatcher.
type CommandSender interface {
	Send(ctx context.Context, deviceID string, cmd it600.Command) error
}

// StateNotifier delivers poll-cycle change and connectivity events.
// Satisfied by *it600.Poller.
type StateNotifier interface {
	Subscribe(fn func(changed []string))
	SubscribeConnectivity(fn func(connected bool))
}

// Config holds the bridge's collaborators and settings.
type Config struct {
	MQTT    MQTTClient
	Devices DeviceSource
	Sender  CommandSender
	Health  *HealthReporter

	// QoS for state, ack and health publishes. Default 1.
	QoS byte
}

// New creates a bridge. Call Start to begin operation.
func New(cfg Config) *Bridge {
	qos := cfg.QoS
	if qos == 0 {
		qos = 1
	}
	return &Bridge{
		mqtt:    cfg.MQTT,
		devices: cfg.Devices,
		sender:  cfg.Sender,
		health:  cfg.Health,
		qos:     qos,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

// Start subscribes to the command topic, registers for model change
// events, publishes the full retained state set, and begins health
// reporting.
//
// notifier subscriptions must be registered before the poll loop
// starts, so call Start before Poller.Start.
func (b *Bridge) Start(ctx context.Context, notifier StateNotifier) error {
	if b.health != nil {
		if err := b.health.PublishStarting(); err != nil {
			b.getLogger().Warn("failed to publish starting status", "error", err)
		}
	}

	if err := b.mqtt.Subscribe(b.topics.Command(), b.qos, b.handleCommand); err != nil {
		return err
	}

	notifier.Subscribe(b.PublishChanged)
	notifier.SubscribeConnectivity(b.handleConnectivity)

	// Seed the retained state topics so late subscribers see every
	// device, not just the ones that changed since they joined.
	b.publishAllStates()

	if b.health != nil {
		b.health.Start(ctx)
	}

	b.getLogger().Info("bridge started", "command_topic", b.topics.Command())
	return nil
}

// Stop halts health reporting and publishes a final stopping status.
// Retained state topics are left in place for the next run.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if b.health != nil {
			b.health.Stop()
		}
		b.getLogger().Info("bridge stopped")
	})
}

// PublishChanged publishes retained state for the given device IDs.
// Wired to the poller's change notifications.
func (b *Bridge) PublishChanged(changed []string) {
	for _, id := range changed {
		d, err := b.devices.Get(id)
		if err != nil {
			b.getLogger().Warn("changed device vanished from model", "device_id", id)
			continue
		}
		b.publishState(d)
	}
}

func (b *Bridge) publishAllStates() {
	for _, d := range b.devices.List() {
		dev := d
		b.publishState(&dev)
	}
}

func (b *Bridge) publishState(d *it600.Device) {
	msg := StateMessage{
		DeviceID:  d.ID,
		Timestamp: time.Now().UTC(),
		Name:      d.Name,
		Family:    string(d.Family),
		Available: d.Available,
		State:     it600.DecodeState(d),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.getLogger().Error("failed to marshal state message", "device_id", d.ID, "error", err)
		return
	}

	if err := b.mqtt.Publish(b.topics.DeviceState(d.ID), payload, b.qos, true); err != nil {
		b.getLogger().Error("failed to publish state", "device_id", d.ID, "error", err)
	}
}

// handleConnectivity reacts to gateway reachability transitions.
func (b *Bridge) handleConnectivity(connected bool) {
	if b.health != nil {
		if err := b.health.PublishNow(); err != nil {
			b.getLogger().Warn("failed to publish health on transition", "error", err)
		}
	}
	if connected {
		b.getLogger().Info("gateway connection restored")
	} else {
		b.getLogger().Warn("gateway unreachable")
	}
}

// handleCommand processes one command message from it600/command.
func (b *Bridge) handleCommand(_ string, payload []byte) {
	b.commandsReceived.Add(1)

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.commandsFailed.Add(1)
		b.getLogger().Warn("undecodable command message", "error", err)
		return
	}

	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	if cmd.DeviceID == "" || cmd.Command == "" {
		b.commandsFailed.Add(1)
		b.publishAckError(cmd, ErrCodeInvalidCommand, "device_id and command are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := b.sender.Send(ctx, cmd.DeviceID, it600.Command{
		Name:   cmd.Command,
		Params: cmd.Parameters,
	})
	if err != nil {
		b.commandsFailed.Add(1)
		b.publishAckError(cmd, ackErrorCode(err), err.Error())
		return
	}

	b.publishAck(AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Status:    AckAccepted,
	})
	b.getLogger().Info("command executed",
		"command_id", cmd.ID,
		"device_id", cmd.DeviceID,
		"command", cmd.Command,
	)
}

func (b *Bridge) publishAckError(cmd CommandMessage, code, message string) {
	b.publishAck(AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		DeviceID:  cmd.DeviceID,
		Status:    AckFailed,
		Error:     &AckError{Code: code, Message: message},
	})
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.getLogger().Error("failed to marshal ack", "command_id", ack.CommandID, "error", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Ack(ack.CommandID), payload, b.qos, false); err != nil {
		b.getLogger().Error("failed to publish ack", "command_id", ack.CommandID, "error", err)
	}
}

// CommandStats returns the received/failed command counters for health
// reporting.
func (b *Bridge) CommandStats() (received, failed uint64) {
	return b.commandsReceived.Load(), b.commandsFailed.Load()
}

// ackErrorCode maps a dispatch error to a stable ack error code.
func ackErrorCode(err error) string {
	switch {
	case errors.Is(err, it600.ErrDeviceNotFound):
		return ErrCodeDeviceNotFound
	case errors.Is(err, it600.ErrUnsupportedCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, it600.ErrInvalidSetpointOrder),
		errors.Is(err, it600.ErrInvalidPosition):
		return ErrCodeInvalidParameters
	case errors.Is(err, it600.ErrGatewayUnreachable),
		errors.Is(err, it600.ErrConnectionFailed):
		return ErrCodeGatewayUnreachable
	case errors.Is(err, it600.ErrCommandRejected):
		return ErrCodeCommandRejected
	default:
		return ErrCodeBridgeError
	}
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
