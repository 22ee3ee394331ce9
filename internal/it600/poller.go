package it600

import (
	"context"
	"errors"
	"sync"
	"time"
)

// PollerStats is a point-in-time view of poll loop health, exposed on
// the daemon's metrics endpoint.
type PollerStats struct {
	Cycles        uint64
	Failures      uint64
	Consecutive   uint64
	LastSuccess   time.Time
	LastError     string
	LastErrorTime time.Time
	Connected     bool
}

// Poller drives the poll-and-diff loop: a full snapshot every interval,
// merged into the Model, with changed device IDs fanned out to
// subscribers.
//
// Connectivity is tracked by consecutive cycle outcomes and reported on
// transitions only, so subscribers see offline once per outage, not
// once per failed cycle.
type Poller struct {
	gateway  *Gateway
	model    *Model
	interval time.Duration
	logger   Logger

	mu           sync.Mutex
	subscribers  []func(changed []string)
	connSubs     []func(connected bool)
	stats        PollerStats
	connected    bool
	everObserved bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller. interval must be positive.
func NewPoller(gateway *Gateway, model *Model, interval time.Duration) *Poller {
	return &Poller{
		gateway:  gateway,
		model:    model,
		interval: interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// Subscribe registers a callback invoked after each poll cycle that
// changed at least one device. The slice is owned by the poller and
// must not be retained past the call.
//
// Subscriptions must be registered before Start.
func (p *Poller) Subscribe(fn func(changed []string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// SubscribeConnectivity registers a callback invoked when gateway
// reachability changes. The first cycle always reports, so subscribers
// learn the initial state.
func (p *Poller) SubscribeConnectivity(fn func(connected bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connSubs = append(p.connSubs, fn)
}

// Start launches the poll loop. The first cycle runs immediately.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

// Stats returns a snapshot of poll loop counters.
func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	stats.Connected = p.connected
	return stats
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	// Bound the cycle so a stalled gateway cannot overlap the next tick.
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	start := time.Now()
	snap, err := p.gateway.Discover(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			// Shutdown, not an outage. Leave state untouched.
			return
		}
		p.recordFailure(err)
		return
	}

	changed, warnings := p.model.ApplySnapshot(snap)
	for _, w := range warnings {
		p.logger.Warn("rejected attribute update",
			"device_id", w.DeviceID,
			"attribute", w.Attribute,
			"message", w.Message,
		)
	}

	p.logger.Debug("poll cycle complete",
		"devices", len(snap.Devices),
		"changed", len(changed),
		"elapsed", time.Since(start),
	)

	subs, connSubs, report := p.recordSuccess()
	for _, fn := range connSubs {
		if report {
			fn(true)
		}
	}
	if len(changed) > 0 {
		for _, fn := range subs {
			fn(changed)
		}
	}
}

func (p *Poller) recordSuccess() (subs []func([]string), connSubs []func(bool), report bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Cycles++
	p.stats.Consecutive = 0
	p.stats.LastSuccess = time.Now()

	report = !p.connected || !p.everObserved
	p.connected = true
	p.everObserved = true

	return p.subscribers, p.connSubs, report
}

func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	p.stats.Cycles++
	p.stats.Failures++
	p.stats.Consecutive++
	p.stats.LastError = err.Error()
	p.stats.LastErrorTime = time.Now()

	report := p.connected || !p.everObserved
	p.connected = false
	p.everObserved = true
	connSubs := p.connSubs
	consecutive := p.stats.Consecutive
	p.mu.Unlock()

	p.logger.Error("poll cycle failed", "error", err, "consecutive_failures", consecutive)

	if report {
		for _, fn := range connSubs {
			fn(false)
		}
	}
}
