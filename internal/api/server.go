// Package api provides the HTTP REST API and WebSocket server for it600d.
//
// It exposes the device model, interpreted device state, command dispatch,
// and daemon health/metrics to local clients.
//
// The server follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/leonardpitzu/it600d/internal/infrastructure/config"
	"github.com/leonardpitzu/it600d/internal/infrastructure/logging"
	"github.com/leonardpitzu/it600d/internal/it600"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// DeviceSource provides read access to the device model.
// Satisfied by *it600.Model.
type DeviceSource interface {
	Get(id string) (*it600.Device, error)
	List() []it600.Device
	Gateway() *it600.GatewayInfo
}

// CommandSender executes device commands. Satisfied by *it600.Dispatcher.
type CommandSender interface {
	Send(ctx context.Context, deviceID string, cmd it600.Command) error
}

// PollStats exposes poll loop counters for health and metrics responses.
// Satisfied by *it600.Poller.
type PollStats interface {
	Stats() it600.PollerStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Devices DeviceSource
	Sender  CommandSender
	Poller  PollStats
	Version string
}

// Server is the HTTP API server for it600d.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	devices   DeviceSource
	sender    CommandSender
	poller    PollStats
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device source is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		devices:   deps.Devices,
		sender:    deps.Sender,
		poller:    deps.Poller,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.server.Addr)
	return nil
}

// NotifyChanged broadcasts interpreted state for changed devices to
// WebSocket clients. Wired to the poller's change notifications.
func (s *Server) NotifyChanged(changed []string) {
	if s.hub == nil {
		return
	}
	for _, id := range changed {
		d, err := s.devices.Get(id)
		if err != nil {
			continue
		}
		s.hub.Broadcast(ChannelDeviceState, deviceStateBody(d))
	}
}

// NotifyConnectivity broadcasts gateway reachability transitions to
// WebSocket clients.
func (s *Server) NotifyConnectivity(connected bool) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelConnectivity, map[string]any{"connected": connected})
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
