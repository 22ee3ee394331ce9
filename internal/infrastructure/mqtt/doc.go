// Package mqtt provides MQTT client connectivity for the iT600 daemon.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The daemon uses MQTT as its outward-facing bus: device state and
// command acknowledgements are published to retained topics, and
// commands are accepted on a single intake topic. Subscribers such as
// home-automation controllers never talk to the gateway directly.
//
//	iT600 gateway ↔ it600d ↔ MQTT Broker ↔ Controllers
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Accept commands
//	err = client.Subscribe(mqtt.Topics{}.Command(), 1,
//	    func(topic string, payload []byte) error {
//	        return handleCommand(payload)
//	    })
//
//	// Publish state
//	topic := mqtt.Topics{}.DeviceState("001E5E090212E5C6_1")
//	client.Publish(topic, stateJSON, 1, true)
package mqtt
