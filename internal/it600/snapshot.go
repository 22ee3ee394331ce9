package it600

import (
	"encoding/json"
	"fmt"
)

// Snapshot is one parsed readall response: the gateway record plus every
// classified device, with attribute maps flattened to
// "<cluster>.<attr>" keys.
type Snapshot struct {
	Gateway  *GatewayInfo
	Devices  []*Device
	Warnings []Warning
}

// Warning reports a non-fatal problem found while parsing or merging a
// snapshot. Warnings are values, not errors: a bad attribute never
// fails the snapshot that carries it.
type Warning struct {
	DeviceID  string `json:"device_id"`
	Attribute string `json:"attribute,omitempty"`
	Message   string `json:"message"`
}

// dataEnvelope is the routing record every device object carries.
type dataEnvelope struct {
	UniID    string `json:"UniID"`
	Endpoint int    `json:"Endpoint"`
}

// parseSnapshot classifies every device object in a readall envelope.
//
// Unclassifiable or deliberately hidden objects (disabled cover
// endpoints, SB600 buttons) are skipped; objects that fail to parse
// produce a warning and are skipped.
func parseSnapshot(env *envelope) *Snapshot {
	snap := &Snapshot{}

	for _, raw := range env.ID {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			snap.warn("", "", fmt.Sprintf("undecodable device object: %v", err))
			continue
		}

		clusters := decodeClusters(obj)

		if _, ok := clusters["sGateway"]; ok {
			snap.Gateway = parseGatewayInfo(clusters)
			continue
		}

		rawData, ok := obj["data"]
		if !ok {
			snap.warn("", "", "device object without data envelope")
			continue
		}
		var data dataEnvelope
		if err := json.Unmarshal(rawData, &data); err != nil || data.UniID == "" {
			snap.warn("", "", "device object with malformed data envelope")
			continue
		}

		dev := buildDevice(data, rawData, clusters)
		if dev == nil {
			continue
		}
		snap.Devices = append(snap.Devices, dev)
	}

	return snap
}

func (s *Snapshot) warn(deviceID, attribute, message string) {
	s.Warnings = append(s.Warnings, Warning{
		DeviceID:  deviceID,
		Attribute: attribute,
		Message:   message,
	})
}

// decodeClusters unmarshals every cluster object, ignoring the data
// envelope and any non-object values.
func decodeClusters(obj map[string]json.RawMessage) map[string]map[string]any {
	clusters := make(map[string]map[string]any, len(obj))
	for name, raw := range obj {
		if name == "data" {
			continue
		}
		var attrs map[string]any
		if err := json.Unmarshal(raw, &attrs); err != nil {
			continue
		}
		clusters[name] = attrs
	}
	return clusters
}

// buildDevice classifies one device object and assembles the Device.
// Returns nil for objects that should not surface as devices.
func buildDevice(data dataEnvelope, rawData json.RawMessage, clusters map[string]map[string]any) *Device {
	model, _ := clusterString(clusters, "DeviceL", "ModelIdentifier_i")

	family, ok := classify(clusters, model)
	if !ok {
		return nil
	}

	id := data.UniID
	nameFallback := "Unknown"
	if family == FamilySwitch {
		// Dual relays share a UniID; the endpoint disambiguates.
		id = fmt.Sprintf("%s_%d", data.UniID, data.Endpoint)
		nameFallback = id
	}

	dev := &Device{
		ID:        id,
		UniID:     data.UniID,
		Endpoint:  data.Endpoint,
		Family:    family,
		Name:      deviceName(clusters, nameFallback),
		Model:     model,
		Available: availability(clusters),
		wireData:  append(json.RawMessage(nil), rawData...),
	}

	dev.Manufacturer, _ = clusterString(clusters, "sBasicS", "ManufactureName")
	if dev.Manufacturer == "" {
		dev.Manufacturer = "SALUS"
	}
	dev.FirmwareVersion, _ = clusterString(clusters, "sZDO", "FirmwareVersion")

	dev.Attributes = flattenClusters(clusters)

	return dev
}

// classify maps cluster evidence to a device family.
//
// Order matters: a combined relay/shutter unit reports both sOnOffS and
// sLevelS on the shutter endpoint, which must classify as a cover.
func classify(clusters map[string]map[string]any, model string) (Family, bool) {
	if _, ok := clusters["sIT600TH"]; ok {
		return FamilyThermostat, true
	}

	_, hasTher := clusters["sTherS"]
	_, hasComm := clusters["sComm"]
	_, hasFan := clusters["sFanS"]
	if hasTher && hasComm && hasFan {
		return FamilyFanCoil, true
	}

	if _, ok := clusters["sLevelS"]; ok {
		// sButtonS.Mode == 0 marks a cover endpoint disabled at the unit.
		if mode, found := clusterFloat(clusters, "sButtonS", "Mode"); found && mode == 0 {
			return "", false
		}
		return FamilyCover, true
	}

	if _, ok := clusters["sOnOffS"]; ok {
		return FamilySwitch, true
	}

	if _, ok := clusters["sIASZS"]; ok {
		if model == "SB600" {
			// Buttons report sIASZS but carry no sensor state.
			return "", false
		}
		return FamilyBinarySensor, true
	}

	// TRV heads and wiring-centre receivers expose their relay state
	// through sIT600I instead of sIASZS.
	if _, ok := clusters["sIT600I"]; ok {
		return FamilyBinarySensor, true
	}

	if _, ok := clusters["sTempS"]; ok {
		return FamilySensor, true
	}

	return "", false
}

// parseGatewayInfo extracts the gateway record from an sGateway object.
func parseGatewayInfo(clusters map[string]map[string]any) *GatewayInfo {
	info := &GatewayInfo{}
	info.MAC, _ = clusterString(clusters, "sGateway", "NetworkLANMAC")
	info.Model, _ = clusterString(clusters, "sGateway", "ModelIdentifier")

	info.Name = info.Model
	if info.Name == "" {
		info.Name = "Salus Gateway"
	}

	info.Manufacturer, _ = clusterString(clusters, "sBasicS", "ManufactureName")
	if info.Manufacturer == "" {
		info.Manufacturer = "SALUS"
	}
	info.FirmwareVersion, _ = clusterString(clusters, "sOTA", "OTAFirmwareVersion_d")

	return info
}

// deviceName extracts the display name from sZDO.DeviceName, itself a
// JSON blob of the shape {"deviceName": "..."}.
func deviceName(clusters map[string]map[string]any, fallback string) string {
	raw, ok := clusterString(clusters, "sZDO", "DeviceName")
	if !ok {
		return fallback
	}

	var blob struct {
		DeviceName string `json:"deviceName"`
	}
	if err := json.Unmarshal([]byte(raw), &blob); err != nil || blob.DeviceName == "" {
		return fallback
	}
	return blob.DeviceName
}

// availability reads sZDOInfo.OnlineStatus_i, defaulting to online when
// the cluster is absent.
func availability(clusters map[string]map[string]any) bool {
	status, ok := clusterFloat(clusters, "sZDOInfo", "OnlineStatus_i")
	if !ok {
		return true
	}
	return status == 1
}

// flattenClusters converts nested cluster maps into dotted attribute keys.
func flattenClusters(clusters map[string]map[string]any) map[string]any {
	attrs := make(map[string]any)
	for cluster, fields := range clusters {
		for field, value := range fields {
			attrs[cluster+"."+field] = value
		}
	}
	return attrs
}

// clusterString reads a string attribute from a cluster map.
func clusterString(clusters map[string]map[string]any, cluster, attr string) (string, bool) {
	fields, ok := clusters[cluster]
	if !ok {
		return "", false
	}
	v, ok := fields[attr].(string)
	return v, ok
}

// clusterFloat reads a numeric attribute from a cluster map.
func clusterFloat(clusters map[string]map[string]any, cluster, attr string) (float64, bool) {
	fields, ok := clusters[cluster]
	if !ok {
		return 0, false
	}
	v, ok := fields[attr].(float64)
	return v, ok
}
