// it600d is a local-network daemon for the Salus iT600 smart home
// gateway (UGE600/UG600).
//
// It maintains an encrypted session with the gateway, discovers the
// devices behind it, keeps their state fresh with a poll-and-diff loop,
// and exposes them over MQTT and a local HTTP/WebSocket API. The cloud
// is never involved.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leonardpitzu/it600d/internal/api"
	"github.com/leonardpitzu/it600d/internal/bridge"
	"github.com/leonardpitzu/it600d/internal/infrastructure/config"
	"github.com/leonardpitzu/it600d/internal/infrastructure/logging"
	"github.com/leonardpitzu/it600d/internal/infrastructure/mqtt"
	"github.com/leonardpitzu/it600d/internal/it600"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so failures
// flow back as errors instead of scattered os.Exit calls.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting it600d",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Gateway session. The initial handshake retries because the
	// gateway reboots slowly after power loss and the daemon often
	// starts alongside it.
	gateway := it600.NewGateway(it600.Config{
		Host:           cfg.Gateway.Host,
		Port:           cfg.Gateway.Port,
		EUID:           cfg.Gateway.EUID,
		RequestTimeout: cfg.Gateway.GetRequestTimeout(),
	})
	gateway.SetLogger(log)
	defer func() {
		if closeErr := gateway.Close(); closeErr != nil {
			log.Error("error closing gateway session", "error", closeErr)
		}
	}()

	mac, err := connectGateway(ctx, cfg.Gateway, gateway, log)
	if err != nil {
		return fmt.Errorf("connecting to gateway: %w", err)
	}
	log.Info("gateway connected",
		"host", cfg.Gateway.Host,
		"mac", mac,
	)

	// Initial discovery seeds the device model.
	snap, err := gateway.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovering devices: %w", err)
	}

	model := it600.NewModel()
	model.SetLogger(log)
	count := model.Register(snap)
	log.Info("devices discovered", "count", count)

	poller := it600.NewPoller(gateway, model, cfg.Gateway.GetPollInterval())
	poller.SetLogger(log)

	dispatcher := it600.NewDispatcher(gateway, model)
	dispatcher.SetLogger(log)

	// MQTT bridge (optional).
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		health := bridge.NewHealthReporter(bridge.HealthReporterConfig{
			Version:   version,
			Publisher: mqttClient,
			Poller:    poller,
		})
		health.SetLogger(log)
		health.SetGatewayMAC(mac)
		health.SetDeviceCount(count)

		br := bridge.New(bridge.Config{
			MQTT:    &mqttBridgeAdapter{client: mqttClient},
			Devices: model,
			Sender:  dispatcher,
			Health:  health,
			QoS:     byte(cfg.MQTT.QoS),
		})
		br.SetLogger(log)
		health.SetCommandStats(br.CommandStats)

		if startErr := br.Start(ctx, poller); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			br.Stop()
		}()

		if hcErr := mqttClient.HealthCheck(ctx); hcErr != nil {
			return fmt.Errorf("MQTT health check: %w", hcErr)
		}
	} else {
		log.Info("MQTT bridge disabled")
	}

	// HTTP API (optional).
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log,
			Devices: model,
			Sender:  dispatcher,
			Poller:  poller,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}

		// WebSocket broadcasts ride the same poll notifications as
		// the MQTT bridge; register before the loop starts.
		poller.Subscribe(apiServer.NotifyChanged)
		poller.SubscribeConnectivity(apiServer.NotifyConnectivity)

		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()

		if hcErr := apiServer.HealthCheck(ctx); hcErr != nil {
			return fmt.Errorf("API health check: %w", hcErr)
		}
	} else {
		log.Info("API server disabled")
	}

	// All subscribers are registered; start polling.
	poller.Start(ctx)
	defer poller.Stop()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls unwind in reverse order:
	// poller, API server, bridge, MQTT, gateway session.

	log.Info("it600d stopped")
	return nil
}

// connectGateway performs the initial handshake, retrying per the
// configured attempt budget. An authentication failure aborts
// immediately: retrying a wrong EUID never helps.
func connectGateway(ctx context.Context, cfg config.GatewayConfig, gateway *it600.Gateway, log *logging.Logger) (string, error) {
	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.GetConnectRetryDelay()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		mac, err := gateway.Connect(ctx)
		if err == nil {
			return mac, nil
		}
		lastErr = err

		if errors.Is(err, it600.ErrAuthenticationFailed) {
			return "", err
		}

		log.Warn("gateway handshake failed",
			"attempt", attempt,
			"attempts", attempts,
			"error", err,
		)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}

// getConfigPath returns the configuration file path.
// Uses the IT600D_CONFIG environment variable if set, otherwise the
// default.
func getConfigPath() string {
	if path := os.Getenv("IT600D_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the
// bridge's MQTTClient interface. The difference is the Subscribe
// handler signature: the infrastructure client's handlers return an
// error, the bridge's do not.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
