package it600

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// defaultRequestTimeout bounds a single gateway exchange when the
// config does not specify one.
const defaultRequestTimeout = 10 * time.Second

// Config carries the connection settings for one gateway session.
type Config struct {
	Host string
	Port int

	// EUID is the 16-character identifier printed on the gateway label.
	// Some units only accept AllZeroEUID.
	EUID string

	// RequestTimeout bounds a single HTTP exchange. Defaults to 10s.
	RequestTimeout time.Duration

	// HTTPClient is optional; when nil the gateway owns a private client
	// and releases its connections on Close.
	HTTPClient *http.Client
}

// Gateway is an authenticated session against one iT600 gateway.
//
// A session is established with Connect, which also resolves the
// gateway's MAC address. Discover retrieves a full device snapshot;
// Write sends an encrypted command payload.
//
// Thread Safety:
//   - Discover and Write may be called concurrently once Connect has
//     returned. Connect and Close must not race other calls.
type Gateway struct {
	transport  *Transport
	ownsClient bool
	mac        string
	logger     Logger
}

// NewGateway creates an unconnected gateway session.
func NewGateway(cfg Config) *Gateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	port := cfg.Port
	if port == 0 {
		port = 80
	}

	client := cfg.HTTPClient
	owns := false
	if client == nil {
		client = &http.Client{}
		owns = true
	}

	return &Gateway{
		transport:  NewTransport(cfg.Host, port, NewEncryptor(cfg.EUID), timeout, client),
		ownsClient: owns,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the gateway session.
func (g *Gateway) SetLogger(logger Logger) {
	g.logger = logger
	g.transport.SetLogger(logger)
}

// Connect performs the encrypted handshake and returns the gateway's
// MAC address.
//
// When the handshake fails, a plain unencrypted probe disambiguates the
// cause: an unreachable host returns ErrConnectionFailed, a reachable
// host with a failed handshake returns ErrAuthenticationFailed (wrong
// EUID).
func (g *Gateway) Connect(ctx context.Context) (string, error) {
	env, err := g.transport.Request(ctx, "read", readAllRequest)
	if err != nil {
		if errors.Is(err, ErrGatewayUnreachable) || errors.Is(err, ErrMalformedResponse) {
			if probeErr := g.transport.Probe(ctx); probeErr != nil {
				return "", fmt.Errorf("%w: %w", ErrConnectionFailed, err)
			}
			return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
		return "", err
	}

	snap := parseSnapshot(env)
	if snap.Gateway == nil || snap.Gateway.MAC == "" {
		return "", fmt.Errorf("%w: response carries no gateway record", ErrMalformedResponse)
	}

	g.mac = snap.Gateway.MAC
	g.logger.Info("connected to gateway",
		"mac", g.mac,
		"model", snap.Gateway.Model,
		"firmware", snap.Gateway.FirmwareVersion,
	)
	return g.mac, nil
}

// MAC returns the gateway MAC resolved by Connect, or "" before it.
func (g *Gateway) MAC() string {
	return g.mac
}

// Discover retrieves and parses a full device snapshot.
// The same operation backs both initial discovery and each poll cycle.
func (g *Gateway) Discover(ctx context.Context) (*Snapshot, error) {
	env, err := g.transport.Request(ctx, "read", readAllRequest)
	if err != nil {
		return nil, err
	}

	snap := parseSnapshot(env)
	for _, w := range snap.Warnings {
		g.logger.Warn("snapshot parse warning",
			"device_id", w.DeviceID,
			"attribute", w.Attribute,
			"message", w.Message,
		)
	}
	return snap, nil
}

// Write sends one encrypted write for a device. wireData is the
// device's routing envelope; clusters holds the attribute payload.
func (g *Gateway) Write(ctx context.Context, wireData json.RawMessage, clusters map[string]map[string]any) error {
	record := map[string]any{"data": wireData}
	for cluster, attrs := range clusters {
		record[cluster] = attrs
	}

	body := map[string]any{
		"requestAttr": "write",
		"id":          []any{record},
	}

	_, err := g.transport.Request(ctx, "write", body)
	return err
}

// Close releases the HTTP client's idle connections if the session owns
// the client.
func (g *Gateway) Close() error {
	if g.ownsClient {
		g.transport.client.CloseIdleConnections()
	}
	return nil
}
