package it600

import (
	"encoding/json"
	"fmt"
	"testing"
)

// parseEnvelope decodes a raw readall response body for snapshot tests.
func parseEnvelope(t *testing.T, raw string) *envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return &env
}

// testReadallResponse is a representative readall body: the gateway
// record plus one thermostat. Shared by the gateway, poller and
// dispatcher tests.
const testReadallResponse = `{
	"status": "success",
	"id": [
		{
			"sGateway": {"NetworkLANMAC": "00:1E:5E:09:0A:0B", "ModelIdentifier": "UGE600"},
			"sBasicS": {"ManufactureName": "SALUS"},
			"sOTA": {"OTAFirmwareVersion_d": "01.12"}
		},
		{
			"data": {"UniID": "001e5e0902abcdef", "Endpoint": 9},
			"sIT600TH": {
				"LocalTemperature_x100": 2150,
				"HeatingSetpoint_x100": 2000,
				"HoldType": 0,
				"RunningState": 1
			},
			"sZDO": {"DeviceName": "{\"deviceName\":\"Lounge\"}", "FirmwareVersion": "1.4"},
			"sZDOInfo": {"OnlineStatus_i": 1},
			"DeviceL": {"ModelIdentifier_i": "SQ610"},
			"sBasicS": {"ManufactureName": "SALUS"}
		}
	]
}`

func TestParseSnapshot_GatewayAndDevice(t *testing.T) {
	snap := parseSnapshot(parseEnvelope(t, testReadallResponse))

	if snap.Gateway == nil {
		t.Fatal("Gateway = nil, want record")
	}
	if snap.Gateway.MAC != "00:1E:5E:09:0A:0B" {
		t.Errorf("Gateway.MAC = %q", snap.Gateway.MAC)
	}
	if snap.Gateway.Model != "UGE600" {
		t.Errorf("Gateway.Model = %q", snap.Gateway.Model)
	}
	if snap.Gateway.FirmwareVersion != "01.12" {
		t.Errorf("Gateway.FirmwareVersion = %q", snap.Gateway.FirmwareVersion)
	}

	if len(snap.Devices) != 1 {
		t.Fatalf("len(Devices) = %d, want 1", len(snap.Devices))
	}
	d := snap.Devices[0]
	if d.ID != "001e5e0902abcdef" {
		t.Errorf("ID = %q", d.ID)
	}
	if d.Family != FamilyThermostat {
		t.Errorf("Family = %q, want thermostat", d.Family)
	}
	if d.Name != "Lounge" {
		t.Errorf("Name = %q, want Lounge", d.Name)
	}
	if d.Model != "SQ610" {
		t.Errorf("Model = %q, want SQ610", d.Model)
	}
	if d.FirmwareVersion != "1.4" {
		t.Errorf("FirmwareVersion = %q", d.FirmwareVersion)
	}
	if !d.Available {
		t.Error("Available = false, want true")
	}
	if got, _ := attrFloat(d.Attributes, "sIT600TH.LocalTemperature_x100"); got != 2150 {
		t.Errorf("LocalTemperature_x100 = %v, want 2150", got)
	}
	if d.WireData() == nil {
		t.Error("WireData() = nil, want routing envelope")
	}
}

func TestParseSnapshot_Classification(t *testing.T) {
	tests := []struct {
		name     string
		clusters string
		family   Family
		skipped  bool
	}{
		{
			name:     "thermostat",
			clusters: `"sIT600TH": {"HoldType": 0}`,
			family:   FamilyThermostat,
		},
		{
			name:     "fan coil",
			clusters: `"sTherS": {"SystemMode": 4}, "sComm": {"HoldType": 0}, "sFanS": {"FanMode": 5}`,
			family:   FamilyFanCoil,
		},
		{
			name:     "combo relay classifies as cover",
			clusters: `"sLevelS": {"CurrentLevel": 50}, "sOnOffS": {"OnOff": 1}`,
			family:   FamilyCover,
		},
		{
			name:     "disabled cover endpoint",
			clusters: `"sLevelS": {"CurrentLevel": 50}, "sButtonS": {"Mode": 0}`,
			skipped:  true,
		},
		{
			name:     "enabled cover endpoint",
			clusters: `"sLevelS": {"CurrentLevel": 50}, "sButtonS": {"Mode": 2}`,
			family:   FamilyCover,
		},
		{
			name:     "switch",
			clusters: `"sOnOffS": {"OnOff": 0}`,
			family:   FamilySwitch,
		},
		{
			name:     "binary sensor",
			clusters: `"sIASZS": {"ErrorIASZSAlarmed1": 0}`,
			family:   FamilyBinarySensor,
		},
		{
			name:     "button has no state",
			clusters: `"sIASZS": {"ErrorIASZSAlarmed1": 0}, "DeviceL": {"ModelIdentifier_i": "SB600"}`,
			skipped:  true,
		},
		{
			name:     "trv head",
			clusters: `"sIT600I": {"RelayStatus": 1}`,
			family:   FamilyBinarySensor,
		},
		{
			name:     "temperature sensor",
			clusters: `"sTempS": {"MeasuredValue_x100": 1900}`,
			family:   FamilySensor,
		},
		{
			name:     "unclassifiable",
			clusters: `"sScheduleS": {"Slots": 6}`,
			skipped:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"status":"success","id":[{"data":{"UniID":"0011223344556677","Endpoint":1}, %s}]}`, tt.clusters)
			snap := parseSnapshot(parseEnvelope(t, body))

			if tt.skipped {
				if len(snap.Devices) != 0 {
					t.Fatalf("got %d devices, want object skipped", len(snap.Devices))
				}
				return
			}
			if len(snap.Devices) != 1 {
				t.Fatalf("got %d devices, want 1", len(snap.Devices))
			}
			if snap.Devices[0].Family != tt.family {
				t.Errorf("Family = %q, want %q", snap.Devices[0].Family, tt.family)
			}
		})
	}
}

func TestParseSnapshot_DualRelayEndpointSuffix(t *testing.T) {
	body := `{"status":"success","id":[
		{"data":{"UniID":"0011223344556677","Endpoint":9}, "sOnOffS":{"OnOff":1}},
		{"data":{"UniID":"0011223344556677","Endpoint":10}, "sOnOffS":{"OnOff":0}}
	]}`
	snap := parseSnapshot(parseEnvelope(t, body))

	if len(snap.Devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(snap.Devices))
	}
	if snap.Devices[0].ID != "0011223344556677_9" {
		t.Errorf("first ID = %q, want endpoint suffix", snap.Devices[0].ID)
	}
	if snap.Devices[1].ID != "0011223344556677_10" {
		t.Errorf("second ID = %q, want endpoint suffix", snap.Devices[1].ID)
	}
	// Switches without a configured name fall back to the ID, which
	// stays unique across the shared UniID.
	if snap.Devices[0].Name != "0011223344556677_9" {
		t.Errorf("first Name = %q", snap.Devices[0].Name)
	}

	// Non-switch devices keep the bare UniID.
	body = `{"status":"success","id":[{"data":{"UniID":"0011223344556677","Endpoint":9}, "sIT600TH":{"HoldType":0}}]}`
	snap = parseSnapshot(parseEnvelope(t, body))
	if snap.Devices[0].ID != "0011223344556677" {
		t.Errorf("thermostat ID = %q, want bare UniID", snap.Devices[0].ID)
	}
	if snap.Devices[0].Name != "Unknown" {
		t.Errorf("thermostat fallback Name = %q, want Unknown", snap.Devices[0].Name)
	}
}

func TestParseSnapshot_DeviceNameFallsBackOnBadBlob(t *testing.T) {
	body := `{"status":"success","id":[{
		"data":{"UniID":"0011223344556677","Endpoint":1},
		"sIT600TH":{"HoldType":0},
		"sZDO":{"DeviceName":"not a json blob"}
	}]}`
	snap := parseSnapshot(parseEnvelope(t, body))

	if snap.Devices[0].Name != "Unknown" {
		t.Errorf("Name = %q, want Unknown", snap.Devices[0].Name)
	}
}

func TestParseSnapshot_Availability(t *testing.T) {
	body := `{"status":"success","id":[{
		"data":{"UniID":"0011223344556677","Endpoint":1},
		"sIT600TH":{"HoldType":0},
		"sZDOInfo":{"OnlineStatus_i":0}
	}]}`
	snap := parseSnapshot(parseEnvelope(t, body))

	if snap.Devices[0].Available {
		t.Error("Available = true, want false for OnlineStatus_i 0")
	}
}

func TestParseSnapshot_MalformedObjects(t *testing.T) {
	body := `{"status":"success","id":[
		{"sIT600TH":{"HoldType":0}},
		{"data":{"Endpoint":1}, "sIT600TH":{"HoldType":0}},
		{"data":{"UniID":"0011223344556677","Endpoint":1}, "sIT600TH":{"HoldType":0}}
	]}`
	snap := parseSnapshot(parseEnvelope(t, body))

	if len(snap.Devices) != 1 {
		t.Errorf("got %d devices, want only the well-formed one", len(snap.Devices))
	}
	if len(snap.Warnings) != 2 {
		t.Errorf("got %d warnings, want 2: %v", len(snap.Warnings), snap.Warnings)
	}
}
