package bridge

import "time"

// MQTT message types exchanged on the it600 topic namespace.

// CommandMessage arrives on it600/command to execute a device command.
type CommandMessage struct {
	// ID correlates the command with its acknowledgment. Commands
	// published without one are assigned an ID before processing.
	ID string `json:"id,omitempty"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp,omitempty"`

	// DeviceID is the logical device identifier.
	DeviceID string `json:"device_id"`

	// Command is the command name (e.g. "turn_on", "set_temperature").
	Command string `json:"command"`

	// Parameters contains command-specific values, e.g.
	// {"temperature": 21.5} or {"position": 40}.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated.
	Source string `json:"source,omitempty"`
}

// AckStatus is the outcome of a command.
type AckStatus string

const (
	// AckAccepted indicates the command reached the gateway.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage is published to it600/ack/{command_id}.
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Status    AckStatus `json:"status"`

	// Error carries details when Status is "failed".
	Error *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeDeviceNotFound     = "DEVICE_NOT_FOUND"
	ErrCodeInvalidCommand     = "INVALID_COMMAND"
	ErrCodeInvalidParameters  = "INVALID_PARAMETERS"
	ErrCodeGatewayUnreachable = "GATEWAY_UNREACHABLE"
	ErrCodeCommandRejected    = "COMMAND_REJECTED"
	ErrCodeBridgeError        = "BRIDGE_ERROR"
)

// StateMessage is published retained to it600/state/{device_id}
// whenever a device's observable state changes.
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	Family    string    `json:"family"`
	Available bool      `json:"available"`

	// State is the interpreted capability state, e.g.
	// {"temperature": 21.5, "mode": "auto"}.
	State map[string]any `json:"state"`
}

// HealthStatus is the bridge's operational status.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is published retained to it600/bridge/health every
// reporting interval.
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`

	// Gateway describes the iT600 gateway connection.
	Gateway *GatewayStatus `json:"gateway,omitempty"`

	// Statistics contains operational counters.
	Statistics *Statistics `json:"statistics,omitempty"`

	DevicesManaged int `json:"devices_managed"`

	// Reason explains a degraded or offline status.
	Reason string `json:"reason,omitempty"`
}

// GatewayStatus describes the gateway connection state.
type GatewayStatus struct {
	Connected           bool       `json:"connected"`
	MAC                 string     `json:"mac,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	ConsecutiveFailures uint64     `json:"consecutive_failures,omitempty"`
}

// Statistics contains operational counters for health reporting.
type Statistics struct {
	PollCycles       uint64 `json:"poll_cycles"`
	PollFailures     uint64 `json:"poll_failures"`
	CommandsReceived uint64 `json:"commands_received"`
	CommandsFailed   uint64 `json:"commands_failed"`
}

// NewHealthMessage builds a health message with the uptime computed
// from startTime.
func NewHealthMessage(version string, status HealthStatus, startTime time.Time) *HealthMessage {
	return &HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
	}
}
