package mqtt

import "fmt"

// Topic prefixes for the it600d MQTT surface.
//
// The daemon publishes device state and command acknowledgements, and
// accepts commands on a single intake topic:
//
//	it600/state/{device_id}   retained device state (published on change)
//	it600/command             command intake (JSON payload names the device)
//	it600/ack/{command_id}    per-command acknowledgement
//	it600/bridge/health       periodic bridge health report
//	it600/bridge/status       online/offline status (retained, LWT)
const (
	// TopicPrefix is the base for all it600d topics.
	TopicPrefix = "it600"

	// TopicPrefixBridge is the base for bridge lifecycle topics.
	TopicPrefixBridge = "it600/bridge"
)

// Topics provides builders for it600d MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("001E5E090212E5C6_1")
//	// Returns: "it600/state/001E5E090212E5C6_1"
type Topics struct{}

// DeviceState returns the retained state topic for a device.
//
// Example: it600/state/001E5E090212E5C6_1
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// Command returns the command intake topic.
//
// Example: it600/command
func (Topics) Command() string {
	return fmt.Sprintf("%s/command", TopicPrefix)
}

// Ack returns the acknowledgement topic for a command.
//
// Example: it600/ack/cmd-abc123
func (Topics) Ack(commandID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, commandID)
}

// BridgeHealth returns the bridge health report topic.
//
// Example: it600/bridge/health
func (Topics) BridgeHealth() string {
	return fmt.Sprintf("%s/health", TopicPrefixBridge)
}

// BridgeStatus returns the bridge online/offline status topic.
// The Last Will and Testament is published here on unexpected disconnect.
//
// Example: it600/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixBridge)
}
