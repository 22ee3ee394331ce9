package it600

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Model is the in-memory representation of every device behind the
// gateway. It is populated by a discovery pass and kept current by the
// poller's snapshot merges.
//
// All public methods are thread-safe. Reads return deep copies so
// callers can never observe a half-merged device.
type Model struct {
	mu      sync.RWMutex
	devices map[string]*Device
	gateway *GatewayInfo
	logger  Logger
}

// NewModel creates an empty device model.
func NewModel() *Model {
	return &Model{
		devices: make(map[string]*Device),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the model.
func (m *Model) SetLogger(logger Logger) {
	m.logger = logger
}

// Register replaces the device set from a discovery snapshot.
// Returns the number of registered devices.
//
// The poll loop never adds or removes devices; a device installed or
// removed mid-session only appears after another Register pass.
func (m *Model) Register(snap *Snapshot) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.devices = make(map[string]*Device, len(snap.Devices))
	for _, d := range snap.Devices {
		m.devices[d.ID] = d.DeepCopy()
	}
	if snap.Gateway != nil {
		m.gateway = snap.Gateway
	}

	m.logger.Info("device model registered", "count", len(m.devices))
	return len(m.devices)
}

// Gateway returns the gateway record from the most recent snapshot,
// or nil before the first discovery.
func (m *Model) Gateway() *GatewayInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.gateway == nil {
		return nil
	}
	info := *m.gateway
	return &info
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (m *Model) Get(id string) (*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return d.DeepCopy(), nil
}

// List retrieves all devices sorted by ID.
// The returned devices are deep copies; callers can safely modify them.
func (m *Model) List() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d.DeepCopy())
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// ApplySnapshot merges a poll snapshot into the model.
//
// The merge is sparse and per-attribute: only attributes present in the
// snapshot are touched, and an attribute failing schema validation is
// skipped (prior value retained) and reported as a warning. Returns
// exactly the IDs whose observable state changed, sorted.
//
// Devices in the snapshot that are not registered are ignored; devices
// missing from the snapshot keep their last known state.
func (m *Model) ApplySnapshot(snap *Snapshot) ([]string, []Warning) {
	warnings := append([]Warning(nil), snap.Warnings...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Gateway != nil {
		m.gateway = snap.Gateway
	}

	var changed []string
	for _, sd := range snap.Devices {
		d, ok := m.devices[sd.ID]
		if !ok {
			continue
		}

		dirty := false

		if d.Available != sd.Available {
			d.Available = sd.Available
			dirty = true
		}
		if sd.Name != "" && sd.Name != "Unknown" && d.Name != sd.Name {
			d.Name = sd.Name
			dirty = true
		}

		for key, value := range sd.Attributes {
			if !attributeValid(key, value) {
				warnings = append(warnings, Warning{
					DeviceID:  sd.ID,
					Attribute: key,
					Message:   fmt.Sprintf("invalid value %v, previous retained", value),
				})
				continue
			}
			old, exists := d.Attributes[key]
			if exists && valuesEqual(old, value) {
				continue
			}
			d.Attributes[key] = deepCopyValue(value)
			dirty = true
		}

		if dirty {
			changed = append(changed, sd.ID)
		}
	}

	sort.Strings(changed)
	return changed, warnings
}

// Rollback captures the attribute values displaced by an optimistic
// delta so a failed command can be undone.
type Rollback struct {
	deviceID string
	prev     map[string]any
	added    []string
}

// ApplyDelta optimistically applies a command's local attribute delta.
// Returns the rollback needed to undo it if the write fails.
func (m *Model) ApplyDelta(id string, attrs map[string]any) (*Rollback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	rb := &Rollback{
		deviceID: id,
		prev:     make(map[string]any, len(attrs)),
	}
	for key, value := range attrs {
		if old, exists := d.Attributes[key]; exists {
			rb.prev[key] = old
		} else {
			rb.added = append(rb.added, key)
		}
		d.Attributes[key] = deepCopyValue(value)
	}

	return rb, nil
}

// Restore undoes an optimistic delta after a failed write.
func (m *Model) Restore(rb *Rollback) error {
	if rb == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.devices[rb.deviceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, rb.deviceID)
	}

	for key, value := range rb.prev {
		d.Attributes[key] = value
	}
	for _, key := range rb.added {
		delete(d.Attributes, key)
	}

	return nil
}

// valuesEqual compares two attribute values, handling nested structures.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
