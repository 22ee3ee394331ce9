package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/leonardpitzu/it600d/internal/infrastructure/mqtt"
	"github.com/leonardpitzu/it600d/internal/it600"
)

// HealthReporter publishes periodic bridge health to MQTT.
type HealthReporter struct {
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	poller    PollStats
	topics    mqtt.Topics

	// Gateway MAC, resolved after connect.
	mac   string
	macMu sync.RWMutex

	deviceCount   int
	deviceCountMu sync.RWMutex

	// commandStats is optional; wired to Bridge.CommandStats.
	commandStats func() (received, failed uint64)

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// HealthPublisher is the publishing surface needed for health messages.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// PollStats exposes poll loop counters. Satisfied by *it600.Poller.
type PollStats interface {
	Stats() it600.PollerStats
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// Version is the daemon version embedded in health messages.
	Version string

	// Interval between health publishes. Default 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher
	Poller    PollStats
}

// NewHealthReporter creates a reporter; call Start to begin publishing.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &HealthReporter{
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		poller:    cfg.Poller,
		done:      make(chan struct{}),
		logger:    noopLogger{},
	}
}

// Start begins periodic reporting until ctx is cancelled or Stop is
// called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop halts reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		//nolint:errcheck // best effort during shutdown
		h.publishStatus(HealthStopping, "bridge stopping")
	})
}

// SetGatewayMAC records the gateway MAC for health messages.
func (h *HealthReporter) SetGatewayMAC(mac string) {
	h.macMu.Lock()
	h.mac = mac
	h.macMu.Unlock()
}

// SetDeviceCount updates the managed device count.
func (h *HealthReporter) SetDeviceCount(count int) {
	h.deviceCountMu.Lock()
	h.deviceCount = count
	h.deviceCountMu.Unlock()
}

// SetCommandStats wires the command counters into health messages.
func (h *HealthReporter) SetCommandStats(fn func() (received, failed uint64)) {
	h.commandStats = fn
}

// SetLogger sets the logger for the reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

func (h *HealthReporter) getLogger() Logger {
	h.loggerMu.RLock()
	defer h.loggerMu.RUnlock()
	return h.logger
}

// PublishStarting publishes a "starting" status during initialization.
func (h *HealthReporter) PublishStarting() error {
	return h.publishStatus(HealthStarting, "bridge starting")
}

// PublishNow publishes the current health status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.getLogger().Warn("failed to publish initial health", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.getLogger().Warn("failed to publish health", "error", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if h.poller != nil && !h.poller.Stats().Connected {
		return HealthDegraded, "gateway unreachable"
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}

	msg := NewHealthMessage(h.version, status, h.startTime)
	msg.Reason = reason

	h.deviceCountMu.RLock()
	msg.DevicesManaged = h.deviceCount
	h.deviceCountMu.RUnlock()

	h.macMu.RLock()
	mac := h.mac
	h.macMu.RUnlock()

	stats := &Statistics{}
	gw := &GatewayStatus{MAC: mac}
	if h.poller != nil {
		ps := h.poller.Stats()
		stats.PollCycles = ps.Cycles
		stats.PollFailures = ps.Failures
		gw.Connected = ps.Connected
		gw.ConsecutiveFailures = ps.Consecutive
		if !ps.LastSuccess.IsZero() {
			t := ps.LastSuccess
			gw.LastSuccess = &t
		}
	}
	if h.commandStats != nil {
		stats.CommandsReceived, stats.CommandsFailed = h.commandStats()
	}
	msg.Gateway = gw
	msg.Statistics = stats

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return h.publisher.Publish(h.topics.BridgeHealth(), payload, 1, true)
}
