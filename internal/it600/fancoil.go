package it600

import "fmt"

// Fan modes for fan-coil units.
const (
	FanOff    = "off"
	FanLow    = "low"
	FanMedium = "medium"
	FanHigh   = "high"
	FanAuto   = "auto"
)

// fanCoilInterpreter handles FC600 fan-coil thermostats
// (sTherS + sComm + sFanS).
type fanCoilInterpreter struct{}

func (fanCoilInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	if v, ok := attrFloat(attrs, "sTherS.LocalTemperature_x100"); ok {
		state["temperature"] = v / 100
	}

	sysMode, _ := attrFloat(attrs, "sTherS.SystemMode")
	heating := sysMode == 4

	switch sysMode {
	case 4:
		state["mode"] = ModeHeat
	case 3:
		state["mode"] = ModeCool
	default:
		state["mode"] = ModeAuto
	}

	if v, ok := attrFloat(attrs, "sTherS.HeatingSetpoint_x100"); ok {
		state["heating_setpoint"] = v / 100
		if heating {
			state["target_temperature"] = v / 100
		}
	}
	if v, ok := attrFloat(attrs, "sTherS.CoolingSetpoint_x100"); ok {
		state["cooling_setpoint"] = v / 100
		if !heating {
			state["target_temperature"] = v / 100
		}
	}

	state["min_temp"] = 5.0
	state["max_temp"] = 40.0
	if heating {
		if v, ok := attrFloat(attrs, "sTherS.MinHeatSetpoint_x100"); ok {
			state["min_temp"] = v / 100
		}
		if v, ok := attrFloat(attrs, "sTherS.MaxHeatSetpoint_x100"); ok {
			state["max_temp"] = v / 100
		}
	} else {
		if v, ok := attrFloat(attrs, "sTherS.MinCoolSetpoint_x100"); ok {
			state["min_temp"] = v / 100
		}
		if v, ok := attrFloat(attrs, "sTherS.MaxCoolSetpoint_x100"); ok {
			state["max_temp"] = v / 100
		}
	}

	hold, hasHold := attrFloat(attrs, "sComm.HoldType")
	if hasHold {
		switch hold {
		case 7:
			state["preset"] = PresetOff
		case 2:
			state["preset"] = PresetPermanentHold
		case 10:
			state["preset"] = PresetEco
		case 1:
			state["preset"] = PresetTemporaryHold
		default:
			state["preset"] = PresetFollowSchedule
		}
	}

	if running, ok := attrFloat(attrs, "sTherS.RunningState"); ok {
		switch {
		case hasHold && hold == 7:
			state["action"] = ActionOff
		case running == 0:
			state["action"] = ActionIdle
		case heating && running == 33:
			state["action"] = ActionHeating
		case heating:
			state["action"] = ActionIdle
		case running == 66:
			state["action"] = ActionCooling
		default:
			state["action"] = ActionIdle
		}
	}

	if fan, ok := attrFloat(attrs, "sFanS.FanMode"); ok {
		switch fan {
		case 0:
			state["fan_mode"] = FanOff
		case 1:
			state["fan_mode"] = FanLow
		case 2:
			state["fan_mode"] = FanMedium
		case 3:
			state["fan_mode"] = FanHigh
		default:
			state["fan_mode"] = FanAuto
		}
	}

	if v, ok := attrFloat(attrs, "sTherUIS.LockKey"); ok {
		state["locked"] = v == 1
	}

	return state
}

func (f fanCoilInterpreter) Encode(d *Device, cmd Command) (*Delta, error) {
	switch cmd.Name {
	case CmdSetTemperature:
		temp, err := paramFloat(cmd, "temperature")
		if err != nil {
			return nil, err
		}
		value := int(roundHalf(temp) * 100)

		// Route by the active mode: cooling adjusts the cooling
		// setpoint, everything else the heating setpoint.
		sysMode, _ := attrFloat(d.Attributes, "sTherS.SystemMode")
		if sysMode == 3 {
			return &Delta{
				Wire:  map[string]map[string]any{"sTherS": {"SetCoolingSetpoint_x100": value}},
				Local: map[string]any{"sTherS.CoolingSetpoint_x100": float64(value)},
			}, nil
		}
		return &Delta{
			Wire:  map[string]map[string]any{"sTherS": {"SetHeatingSetpoint_x100": value}},
			Local: map[string]any{"sTherS.HeatingSetpoint_x100": float64(value)},
		}, nil

	case CmdSetSetpoints:
		heat, err := paramFloat(cmd, "heating")
		if err != nil {
			return nil, err
		}
		cool, err := paramFloat(cmd, "cooling")
		if err != nil {
			return nil, err
		}
		if heat >= cool {
			return nil, fmt.Errorf("%w: heating %.1f, cooling %.1f", ErrInvalidSetpointOrder, heat, cool)
		}
		heatValue := int(roundHalf(heat) * 100)
		coolValue := int(roundHalf(cool) * 100)
		return &Delta{
			Wire: map[string]map[string]any{"sTherS": {
				"SetHeatingSetpoint_x100": heatValue,
				"SetCoolingSetpoint_x100": coolValue,
			}},
			Local: map[string]any{
				"sTherS.HeatingSetpoint_x100": float64(heatValue),
				"sTherS.CoolingSetpoint_x100": float64(coolValue),
			},
		}, nil

	case CmdSetMode:
		mode, err := paramString(cmd, "mode")
		if err != nil {
			return nil, err
		}
		var sysMode int
		switch mode {
		case ModeHeat:
			sysMode = 4
		case ModeCool:
			sysMode = 3
		case ModeAuto:
			sysMode = 1
		default:
			return nil, fmt.Errorf("%w: unknown mode %q", ErrUnsupportedCommand, mode)
		}
		return &Delta{
			Wire:  map[string]map[string]any{"sTherS": {"SetSystemMode": sysMode}},
			Local: map[string]any{"sTherS.SystemMode": float64(sysMode)},
		}, nil

	case CmdSetPreset:
		preset, err := paramString(cmd, "preset")
		if err != nil {
			return nil, err
		}
		var hold int
		switch preset {
		case PresetOff:
			hold = 7
		case PresetEco:
			hold = 10
		case PresetPermanentHold:
			hold = 2
		case PresetTemporaryHold:
			hold = 1
		case PresetFollowSchedule:
			hold = 0
		default:
			return nil, fmt.Errorf("%w: unknown preset %q", ErrUnsupportedCommand, preset)
		}
		return holdTypeDelta("sComm", hold), nil

	case CmdSetFanMode:
		mode, err := paramString(cmd, "fan_mode")
		if err != nil {
			return nil, err
		}
		var fan int
		switch mode {
		case FanAuto:
			fan = 5
		case FanHigh:
			fan = 3
		case FanMedium:
			fan = 2
		case FanLow:
			fan = 1
		case FanOff:
			fan = 0
		default:
			return nil, fmt.Errorf("%w: unknown fan mode %q", ErrUnsupportedCommand, mode)
		}
		return &Delta{
			Wire:  map[string]map[string]any{"sFanS": {"FanMode": fan}},
			Local: map[string]any{"sFanS.FanMode": float64(fan)},
		}, nil

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

	return nil, unsupported(FamilyFanCoil, cmd)
}
