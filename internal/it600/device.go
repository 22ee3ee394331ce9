package it600

import "encoding/json"

// Family classifies a device by the cluster set it exposes.
// The family selects the capability interpreter used for state decoding
// and command encoding.
type Family string

const (
	// FamilyThermostat is a standard heating thermostat (sIT600TH).
	FamilyThermostat Family = "thermostat"

	// FamilyFanCoil is an FC600 fan-coil thermostat (sTherS + sComm + sFanS).
	FamilyFanCoil Family = "fan_coil"

	// FamilySwitch is a smart plug or relay (sOnOffS).
	FamilySwitch Family = "switch"

	// FamilyCover is a roller shutter / cover actuator (sLevelS).
	FamilyCover Family = "cover"

	// FamilyBinarySensor is an alarm-style sensor (sIASZS): window/door,
	// water leak or smoke.
	FamilyBinarySensor Family = "binary_sensor"

	// FamilySensor is a measurement sensor (sTempS): temperature,
	// humidity, battery.
	FamilySensor Family = "sensor"
)

// Device is one logical device behind the gateway.
//
// Attributes holds the raw gateway attributes flattened to
// "<cluster>.<attr>" keys (e.g. "sIT600TH.LocalTemperature_x100").
// Interpretation into capability state is the interpreter's job; the
// Device itself stays family-agnostic.
type Device struct {
	// ID is the logical device id: UniID, suffixed with "_<Endpoint>"
	// for multi-endpoint hardware such as dual relays.
	ID string `json:"id"`

	UniID    string `json:"uni_id"`
	Endpoint int    `json:"endpoint"`

	Family Family `json:"family"`
	Name   string `json:"name"`

	Manufacturer    string `json:"manufacturer,omitempty"`
	Model           string `json:"model,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`

	// Available reflects sZDOInfo.OnlineStatus_i from the last snapshot.
	Available bool `json:"available"`

	Attributes map[string]any `json:"attributes"`

	// wireData is the verbatim "data" envelope from the gateway,
	// replayed on every write so the gateway can route the command.
	wireData json.RawMessage
}

// WireData returns the routing envelope for write requests.
func (d *Device) WireData() json.RawMessage {
	return d.wireData
}

// DeepCopy creates a complete independent copy of the Device.
// The attribute map is cloned so modifications to the copy do not
// affect the original. This is essential for model isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	cpy.Attributes = deepCopyMap(d.Attributes)

	if d.wireData != nil {
		cpy.wireData = make(json.RawMessage, len(d.wireData))
		copy(cpy.wireData, d.wireData)
	}

	return &cpy
}

// GatewayInfo describes the gateway unit itself, extracted from the
// sGateway record of a snapshot. It is session metadata, not a Device.
type GatewayInfo struct {
	// MAC is sGateway.NetworkLANMAC, the session unique identifier.
	MAC string `json:"mac"`

	Name            string `json:"name"`
	Model           string `json:"model,omitempty"`
	Manufacturer    string `json:"manufacturer,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, float64, etc.) are safe to copy by value
		return val
	}
}
