package it600

import (
	"errors"
	"reflect"
	"testing"
)

func testDevice(id string, attrs map[string]any) *Device {
	return &Device{
		ID:         id,
		UniID:      id,
		Family:     FamilyThermostat,
		Name:       "Test Device",
		Available:  true,
		Attributes: attrs,
	}
}

func testSnapshot(devices ...*Device) *Snapshot {
	return &Snapshot{Devices: devices}
}

func newRegisteredModel(t *testing.T, devices ...*Device) *Model {
	t.Helper()
	m := NewModel()
	if got := m.Register(testSnapshot(devices...)); got != len(devices) {
		t.Fatalf("Register() = %d, want %d", got, len(devices))
	}
	return m
}

func TestModel_GetReturnsDeepCopy(t *testing.T) {
	m := newRegisteredModel(t, testDevice("dev1", map[string]any{
		"sIT600TH.HoldType": float64(0),
	}))

	d1, err := m.Get("dev1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	d1.Attributes["sIT600TH.HoldType"] = float64(7)
	d1.Name = "mutated"

	d2, err := m.Get("dev1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := d2.Attributes["sIT600TH.HoldType"]; got != float64(0) {
		t.Errorf("stored attribute mutated through copy: %v", got)
	}
	if d2.Name != "Test Device" {
		t.Errorf("stored name mutated through copy: %q", d2.Name)
	}
}

func TestModel_GetNotFound(t *testing.T) {
	m := NewModel()
	if _, err := m.Get("missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestModel_ListSorted(t *testing.T) {
	m := newRegisteredModel(t,
		testDevice("charlie", map[string]any{}),
		testDevice("alpha", map[string]any{}),
		testDevice("bravo", map[string]any{}),
	)

	devices := m.List()
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	want := []string{"alpha", "bravo", "charlie"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("List() order = %v, want %v", ids, want)
	}
}

func TestModel_RegisterReplacesSet(t *testing.T) {
	m := newRegisteredModel(t, testDevice("old", map[string]any{}))
	m.Register(testSnapshot(testDevice("new", map[string]any{})))

	if _, err := m.Get("old"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("old device survived re-registration: %v", err)
	}
	if _, err := m.Get("new"); err != nil {
		t.Errorf("new device missing after registration: %v", err)
	}
}

func TestModel_ApplySnapshot(t *testing.T) {
	m := newRegisteredModel(t,
		testDevice("dev1", map[string]any{
			"sIT600TH.LocalTemperature_x100": float64(2000),
			"sIT600TH.HoldType":              float64(0),
		}),
		testDevice("dev2", map[string]any{
			"sIT600TH.LocalTemperature_x100": float64(1900),
		}),
	)

	// dev1 changes one attribute, dev2 reports identical values, and an
	// unregistered device comes along for the ride.
	changed, warnings := m.ApplySnapshot(testSnapshot(
		testDevice("dev1", map[string]any{
			"sIT600TH.LocalTemperature_x100": float64(2150),
			"sIT600TH.HoldType":              float64(0),
		}),
		testDevice("dev2", map[string]any{
			"sIT600TH.LocalTemperature_x100": float64(1900),
		}),
		testDevice("stranger", map[string]any{
			"sIT600TH.LocalTemperature_x100": float64(1000),
		}),
	))

	if !reflect.DeepEqual(changed, []string{"dev1"}) {
		t.Errorf("changed = %v, want [dev1]", changed)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	d, _ := m.Get("dev1")
	if got := d.Attributes["sIT600TH.LocalTemperature_x100"]; got != float64(2150) {
		t.Errorf("merged value = %v, want 2150", got)
	}
	if _, err := m.Get("stranger"); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("poll merge added an unregistered device")
	}
}

func TestModel_ApplySnapshot_SparseMerge(t *testing.T) {
	m := newRegisteredModel(t, testDevice("dev1", map[string]any{
		"sIT600TH.LocalTemperature_x100": float64(2000),
		"sIT600TH.HoldType":              float64(2),
	}))

	// Snapshot carries only one of the two attributes; the other must
	// survive untouched.
	changed, _ := m.ApplySnapshot(testSnapshot(testDevice("dev1", map[string]any{
		"sIT600TH.LocalTemperature_x100": float64(2100),
	})))

	if !reflect.DeepEqual(changed, []string{"dev1"}) {
		t.Fatalf("changed = %v", changed)
	}
	d, _ := m.Get("dev1")
	if got := d.Attributes["sIT600TH.HoldType"]; got != float64(2) {
		t.Errorf("absent attribute was disturbed: %v", got)
	}
}

func TestModel_ApplySnapshot_InvalidValueRetained(t *testing.T) {
	m := newRegisteredModel(t, testDevice("dev1", map[string]any{
		"sIT600TH.HoldType": float64(2),
	}))

	changed, warnings := m.ApplySnapshot(testSnapshot(testDevice("dev1", map[string]any{
		"sIT600TH.HoldType": float64(99),
	})))

	if len(changed) != 0 {
		t.Errorf("changed = %v, want none for rejected value", changed)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if warnings[0].DeviceID != "dev1" || warnings[0].Attribute != "sIT600TH.HoldType" {
		t.Errorf("warning = %+v", warnings[0])
	}

	d, _ := m.Get("dev1")
	if got := d.Attributes["sIT600TH.HoldType"]; got != float64(2) {
		t.Errorf("prior value lost: %v", got)
	}
}

func TestModel_ApplySnapshot_AvailabilityAndName(t *testing.T) {
	m := newRegisteredModel(t, testDevice("dev1", map[string]any{}))

	update := testDevice("dev1", map[string]any{})
	update.Available = false
	update.Name = "Renamed"
	changed, _ := m.ApplySnapshot(testSnapshot(update))

	if !reflect.DeepEqual(changed, []string{"dev1"}) {
		t.Fatalf("changed = %v", changed)
	}
	d, _ := m.Get("dev1")
	if d.Available {
		t.Error("Available not merged")
	}
	if d.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", d.Name)
	}
}

func TestModel_ApplyDeltaAndRestore(t *testing.T) {
	m := newRegisteredModel(t, testDevice("dev1", map[string]any{
		"sIT600TH.HeatingSetpoint_x100": float64(2000),
	}))

	rb, err := m.ApplyDelta("dev1", map[string]any{
		"sIT600TH.HeatingSetpoint_x100": float64(2150),
		"sTherUIS.LockKey":              float64(1),
	})
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	d, _ := m.Get("dev1")
	if got := d.Attributes["sIT600TH.HeatingSetpoint_x100"]; got != float64(2150) {
		t.Errorf("delta not applied: %v", got)
	}
	if got := d.Attributes["sTherUIS.LockKey"]; got != float64(1) {
		t.Errorf("new attribute not applied: %v", got)
	}

	if err := m.Restore(rb); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	d, _ = m.Get("dev1")
	if got := d.Attributes["sIT600TH.HeatingSetpoint_x100"]; got != float64(2000) {
		t.Errorf("prior value not restored: %v", got)
	}
	if _, exists := d.Attributes["sTherUIS.LockKey"]; exists {
		t.Error("attribute added by delta survived restore")
	}
}

func TestModel_ApplyDeltaUnknownDevice(t *testing.T) {
	m := NewModel()
	if _, err := m.ApplyDelta("missing", map[string]any{"k": 1}); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("ApplyDelta() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestModel_Gateway(t *testing.T) {
	m := NewModel()
	if m.Gateway() != nil {
		t.Error("Gateway() before discovery should be nil")
	}

	snap := testSnapshot()
	snap.Gateway = &GatewayInfo{MAC: "00:1E:5E:09:0A:0B", Model: "UGE600"}
	m.Register(snap)

	info := m.Gateway()
	if info == nil || info.MAC != "00:1E:5E:09:0A:0B" {
		t.Fatalf("Gateway() = %+v", info)
	}
	info.MAC = "mutated"
	if m.Gateway().MAC != "00:1E:5E:09:0A:0B" {
		t.Error("gateway record mutated through returned copy")
	}
}
