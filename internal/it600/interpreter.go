package it600

import (
	"fmt"
	"math"
)

// Command is one action requested against a device.
type Command struct {
	Name   string         `json:"command"`
	Params map[string]any `json:"parameters,omitempty"`
}

// Command names accepted by the family interpreters.
const (
	CmdSetTemperature = "set_temperature"
	CmdSetSetpoints   = "set_setpoints"
	CmdSetMode        = "set_mode"
	CmdSetPreset      = "set_preset"
	CmdSetFanMode     = "set_fan_mode"
	CmdSetLock        = "set_lock"
	CmdTurnOn         = "turn_on"
	CmdTurnOff        = "turn_off"
	CmdSetPosition    = "set_position"
	CmdOpen           = "open"
	CmdClose          = "close"
)

// State is a device's interpreted capability state: stable snake_case
// keys with engineering-unit values, derived from raw attributes.
type State map[string]any

// Delta is the two-sided result of encoding a command.
//
// Wire is the nested cluster payload sent to the gateway; Local is the
// flattened attribute delta applied optimistically to the model so the
// commanded value is visible before the next poll confirms it.
type Delta struct {
	Wire  map[string]map[string]any
	Local map[string]any
}

// Interpreter translates between raw gateway attributes and capability
// state for one device family.
type Interpreter interface {
	// Decode derives capability state from the device's attributes.
	// Unknown or missing attributes simply leave keys out of the state.
	Decode(d *Device) State

	// Encode validates a command and produces its wire payload and
	// optimistic local delta. Validation failures surface before any
	// network traffic.
	Encode(d *Device, cmd Command) (*Delta, error)
}

// interpreters is the family dispatch table.
var interpreters = map[Family]Interpreter{
	FamilyThermostat:   thermostatInterpreter{},
	FamilyFanCoil:      fanCoilInterpreter{},
	FamilySwitch:       switchInterpreter{},
	FamilyCover:        coverInterpreter{},
	FamilyBinarySensor: binarySensorInterpreter{},
	FamilySensor:       sensorInterpreter{},
}

// interpreterFor returns the interpreter for a family.
func interpreterFor(f Family) (Interpreter, bool) {
	i, ok := interpreters[f]
	return i, ok
}

// DecodeState derives the capability state for a device using its
// family's interpreter. Families without an interpreter return nil.
func DecodeState(d *Device) State {
	interp, ok := interpreterFor(d.Family)
	if !ok {
		return nil
	}
	return interp.Decode(d)
}

// roundHalf rounds to the nearest 0.5 (e.g. 1.01→1.0, 1.4→1.5, 1.8→2.0).
func roundHalf(v float64) float64 {
	return math.Round(v*2) / 2
}

// attrFloat reads a numeric attribute from a flattened attribute map.
func attrFloat(attrs map[string]any, key string) (float64, bool) {
	v, ok := attrs[key].(float64)
	return v, ok
}

// attrString reads a string attribute from a flattened attribute map.
func attrString(attrs map[string]any, key string) (string, bool) {
	v, ok := attrs[key].(string)
	return v, ok
}

// paramFloat reads a numeric command parameter.
func paramFloat(cmd Command, name string) (float64, error) {
	v, ok := cmd.Params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s requires parameter %q", ErrUnsupportedCommand, cmd.Name, name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: parameter %q must be a number", ErrUnsupportedCommand, name)
	}
}

// paramString reads a string command parameter.
func paramString(cmd Command, name string) (string, error) {
	v, ok := cmd.Params[name].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s requires string parameter %q", ErrUnsupportedCommand, cmd.Name, name)
	}
	return v, nil
}

// paramBool reads a boolean command parameter.
func paramBool(cmd Command, name string) (bool, error) {
	v, ok := cmd.Params[name].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s requires boolean parameter %q", ErrUnsupportedCommand, cmd.Name, name)
	}
	return v, nil
}

// unsupported builds the rejection error for a command a family cannot
// handle.
func unsupported(f Family, cmd Command) error {
	return fmt.Errorf("%w: %s does not accept %q", ErrUnsupportedCommand, f, cmd.Name)
}
