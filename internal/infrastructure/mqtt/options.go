package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/leonardpitzu/it600d/internal/infrastructure/config"
)

const (
	// defaultConnectTimeout bounds the initial broker handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds waiting for a publish or subscribe ack.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is how long Disconnect lets pending
	// operations drain, in milliseconds.
	defaultDisconnectQuiesce = 1000

	// defaultKeepAlive is the PINGREQ interval for dead-link detection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the highest QoS level MQTT defines.
	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions translates the daemon configuration into paho
// options: broker URL with the right scheme, credentials, clean
// session, and reconnect backoff. TLS, when enabled, floors at 1.2.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Clean session: the daemon republishes retained state on connect,
	// so a persistent broker-side session buys nothing.
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT registers the broker-side will on the bridge status
// topic. If the daemon dies without a clean disconnect, the broker
// flips the retained status to offline for every subscriber watching
// it600/bridge/status. QoS 1, retained.
func configureLWT(opts *pahomqtt.ClientOptions, clientID string) {
	payload := fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"unexpected_disconnect","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
	opts.SetWill(Topics{}.BridgeStatus(), payload, 1, true)
}

// buildOnlinePayload is the retained status published after each
// successful connect.
func buildOnlinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"online","client_id":"%s","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}

// buildOfflinePayload is the graceful-shutdown status, distinguishable
// from the will's unexpected_disconnect.
func buildOfflinePayload(clientID string) string {
	return fmt.Sprintf(
		`{"status":"offline","client_id":"%s","reason":"graceful_shutdown","timestamp":"%s"}`,
		clientID,
		time.Now().UTC().Format(time.RFC3339),
	)
}
