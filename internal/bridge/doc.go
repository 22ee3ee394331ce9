// Package bridge connects the iT600 device model to MQTT.
//
// Three flows:
//   - State: retained publishes to it600/state/{device_id} whenever the
//     poll loop observes a change, plus a full seed on startup.
//   - Commands: it600/command carries CommandMessage payloads; each one
//     is executed against the gateway and acknowledged on
//     it600/ack/{command_id}.
//   - Health: a retained HealthMessage on it600/bridge/health every
//     reporting interval, with an offline Last Will registered at
//     connect time.
package bridge
