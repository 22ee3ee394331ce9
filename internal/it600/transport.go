package it600

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger defines the logging interface used by this package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// readAllRequest is the full-snapshot read issued on connect and every
// poll cycle.
var readAllRequest = map[string]any{"requestAttr": "readall"}

// envelope is the outer shape of every decrypted gateway response.
type envelope struct {
	Status string            `json:"status"`
	ID     []json.RawMessage `json:"id"`
}

// Transport performs encrypted HTTP exchanges with the gateway.
//
// Every exchange is a POST to http://host:port/deviceid/<command> with an
// AES-CBC encrypted JSON body. Responses are encrypted the same way.
// Calls are independent; the http.Client handles connection reuse, so
// concurrent requests need no serialization.
type Transport struct {
	baseURL string
	enc     *Encryptor
	client  *http.Client
	timeout time.Duration
	logger  Logger
}

// NewTransport creates a Transport for the gateway at host:port.
// If client is nil a default http.Client is used.
func NewTransport(host string, port int, enc *Encryptor, timeout time.Duration, client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	return &Transport{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		enc:     enc,
		client:  client,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the transport.
func (t *Transport) SetLogger(logger Logger) {
	t.logger = logger
}

// Request performs one encrypted exchange and returns the decrypted,
// parsed response envelope.
//
// Error mapping:
//   - network / timeout failures: ErrGatewayUnreachable
//   - decrypt or JSON parse failures: ErrMalformedResponse
//   - decrypted status != "success": ErrCommandRejected
func (t *Transport) Request(ctx context.Context, command string, body any) (*envelope, error) {
	plain, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	encrypted, err := t.enc.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("encrypting request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/deviceid/%s", t.baseURL, command)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encrypted))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	}

	decrypted, err := t.enc.Decrypt(raw)
	if err != nil {
		return nil, err // already wraps ErrMalformedResponse
	}

	var env envelope
	if err := json.Unmarshal(decrypted, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if env.Status != "success" {
		t.logger.Warn("gateway rejected request", "command", command, "status", env.Status)
		return nil, fmt.Errorf("%w: %s returned status %q", ErrCommandRejected, command, env.Status)
	}

	return &env, nil
}

// Probe performs a plain unencrypted GET against the gateway root.
// It is used during the handshake to tell a wrong host apart from a
// wrong EUID: a reachable gateway answers plain HTTP regardless of key.
func (t *Transport) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
