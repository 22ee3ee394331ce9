package it600

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HVAC modes exposed in interpreted state.
const (
	ModeOff  = "off"
	ModeHeat = "heat"
	ModeCool = "cool"
	ModeAuto = "auto"
)

// HVAC actions (what the device is doing right now).
const (
	ActionOff     = "off"
	ActionIdle    = "idle"
	ActionHeating = "heating"
	ActionCooling = "cooling"
)

// Preset modes, matching the vendor app's labels.
const (
	PresetFollowSchedule = "Follow Schedule"
	PresetPermanentHold  = "Permanent Hold"
	PresetTemporaryHold  = "Temporary Hold"
	PresetEco            = "Eco"
	PresetOff            = "Off"
)

// thermostatInterpreter handles standard heating thermostats (sIT600TH).
type thermostatInterpreter struct{}

func (thermostatInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	if v, ok := attrFloat(attrs, "sIT600TH.LocalTemperature_x100"); ok {
		state["temperature"] = v / 100
	}
	if v, ok := attrFloat(attrs, "sIT600TH.HeatingSetpoint_x100"); ok {
		state["target_temperature"] = v / 100
	}

	state["min_temp"] = 5.0
	state["max_temp"] = 35.0
	if v, ok := attrFloat(attrs, "sIT600TH.MinHeatSetpoint_x100"); ok {
		state["min_temp"] = v / 100
	}
	if v, ok := attrFloat(attrs, "sIT600TH.MaxHeatSetpoint_x100"); ok {
		state["max_temp"] = v / 100
	}

	hold, hasHold := attrFloat(attrs, "sIT600TH.HoldType")
	if hasHold {
		switch hold {
		case 7:
			state["mode"] = ModeOff
			state["preset"] = PresetOff
		case 2:
			state["mode"] = ModeHeat
			state["preset"] = PresetPermanentHold
		default:
			state["mode"] = ModeAuto
			state["preset"] = PresetFollowSchedule
		}
	}

	if running, ok := attrFloat(attrs, "sIT600TH.RunningState"); ok {
		switch {
		case hasHold && hold == 7:
			state["action"] = ActionOff
		case int(running)%2 == 0:
			state["action"] = ActionIdle
		default:
			state["action"] = ActionHeating
		}
	}

	statusD, _ := attrString(attrs, "sIT600TH.Status_d")

	if thermostatHasHumidity(statusD, d.Model) {
		if v, ok := attrFloat(attrs, "sIT600TH.SunnySetpoint_x100"); ok {
			// Despite the _x100 suffix this attribute holds the relative
			// humidity as a plain percentage.
			state["humidity"] = v
		}
	}

	if pct, ok := thermostatBattery(statusD, d.Model); ok {
		state["battery"] = pct
	}

	if v, ok := attrFloat(attrs, "sTherUIS.LockKey"); ok {
		state["locked"] = v == 1
	}

	problems, batteryProblem := thermostatProblems(attrs)
	state["problem"] = len(problems) > 0
	if len(problems) > 0 {
		state["problems"] = problems
	}
	state["battery_problem"] = batteryProblem

	return state
}

func (thermostatInterpreter) Encode(d *Device, cmd Command) (*Delta, error) {
	switch cmd.Name {
	case CmdSetTemperature:
		temp, err := paramFloat(cmd, "temperature")
		if err != nil {
			return nil, err
		}
		value := int(roundHalf(temp) * 100)
		return &Delta{
			Wire:  map[string]map[string]any{"sIT600TH": {"SetHeatingSetpoint_x100": value}},
			Local: map[string]any{"sIT600TH.HeatingSetpoint_x100": float64(value)},
		}, nil

	case CmdSetMode:
		mode, err := paramString(cmd, "mode")
		if err != nil {
			return nil, err
		}
		var hold int
		switch mode {
		case ModeOff:
			hold = 7
		case ModeHeat, ModeAuto:
			hold = 0
		default:
			return nil, fmt.Errorf("%w: unknown mode %q", ErrUnsupportedCommand, mode)
		}
		return holdTypeDelta("sIT600TH", hold), nil

	case CmdSetPreset:
		preset, err := paramString(cmd, "preset")
		if err != nil {
			return nil, err
		}
		var hold int
		switch preset {
		case PresetOff:
			hold = 7
		case PresetPermanentHold:
			hold = 2
		case PresetFollowSchedule:
			hold = 0
		default:
			return nil, fmt.Errorf("%w: unknown preset %q", ErrUnsupportedCommand, preset)
		}
		return holdTypeDelta("sIT600TH", hold), nil

	case CmdSetLock:
		locked, err := paramBool(cmd, "locked")
		if err != nil {
			return nil, err
		}
		value := 0
		if locked {
			value = 1
		}
		return &Delta{
			Wire:  map[string]map[string]any{"sTherUIS": {"LockKey": value}},
			Local: map[string]any{"sTherUIS.LockKey": float64(value)},
		}, nil
	}

	return nil, unsupported(FamilyThermostat, cmd)
}

// holdTypeDelta builds the write payload for a HoldType change on the
// given thermostat cluster.
func holdTypeDelta(cluster string, hold int) *Delta {
	return &Delta{
		Wire:  map[string]map[string]any{cluster: {"SetHoldType": hold}},
		Local: map[string]any{cluster + ".HoldType": float64(hold)},
	}
}

// thermostatHasHumidity reports whether the unit carries a humidity
// sensor. HeatingControl lives in Status_d at hex positions 32-33; a
// value of 1 means a sensor is fitted. When Status_d is absent the
// model name decides: the SQ610 family has one except the RFNH variant.
func thermostatHasHumidity(statusD, model string) bool {
	if len(statusD) >= 34 {
		if ctrl, err := strconv.ParseInt(statusD[32:34], 16, 32); err == nil && ctrl == 1 {
			return true
		}
	}
	return strings.Contains(model, "SQ610") && !strings.Contains(model, "RFNH")
}

// thermostatBattery extracts the 0-5 battery digit at position 99 of
// Status_d for battery-powered models.
func thermostatBattery(statusD, model string) (int, bool) {
	if _, ok := batteryOEMModels[model]; !ok {
		return 0, false
	}
	if len(statusD) <= 99 {
		return 0, false
	}
	raw, err := strconv.Atoi(string(statusD[99]))
	if err != nil || raw < 0 || raw > 5 {
		return 0, false
	}
	return batteryLevelMap[raw], true
}

// thermostatProblems collects active error flags, splitting battery
// conditions from operational problems.
func thermostatProblems(attrs map[string]any) (problems []string, batteryProblem bool) {
	for code, description := range thermostatErrorCodes {
		v, ok := attrFloat(attrs, "sIT600TH."+code)
		if !ok || v != 1 {
			continue
		}
		if _, isBattery := batteryErrorCodes[code]; isBattery {
			batteryProblem = true
		} else {
			problems = append(problems, description)
		}
	}
	sort.Strings(problems)
	return problems, batteryProblem
}
