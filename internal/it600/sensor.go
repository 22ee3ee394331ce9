package it600

// binarySensorInterpreter handles alarm-style sensors (sIASZS) and the
// relay-status devices (sIT600I).
type binarySensorInterpreter struct{}

func (binarySensorInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	switch d.Model {
	case "SW600", "OS600":
		state["device_class"] = "window"
	case "WLS600":
		state["device_class"] = "moisture"
	case "SmokeSensor-EM":
		state["device_class"] = "smoke"
	case "it600MINITRV":
		state["device_class"] = "heat"
	case "it600Receiver":
		state["device_class"] = "running"
	}

	if v, ok := attrFloat(attrs, "sIT600I.RelayStatus"); ok {
		state["triggered"] = v == 1
	} else if v, ok := attrFloat(attrs, "sIASZS.ErrorIASZSAlarmed1"); ok {
		state["triggered"] = v == 1
	}

	if v, ok := attrFloat(attrs, "sIASZS.ErrorIASZSLowBattery"); ok {
		state["low_battery"] = v == 1
	} else if v, ok := attrFloat(attrs, "sPowerS.ErrorPowerSLowBattery"); ok {
		state["low_battery"] = v == 1
	}

	// Many alarm sensors carry a temperature cluster as well.
	if v, ok := attrFloat(attrs, "sTempS.MeasuredValue_x100"); ok {
		state["temperature"] = v / 100
	}

	if v, ok := attrFloat(attrs, "sPowerS.BatteryVoltage_x10"); ok {
		state["battery"] = voltageToBatteryPct(v/10, d.Model)
	}

	return state
}

func (binarySensorInterpreter) Encode(_ *Device, cmd Command) (*Delta, error) {
	return nil, unsupported(FamilyBinarySensor, cmd)
}

// sensorInterpreter handles measurement sensors (sTempS).
type sensorInterpreter struct{}

func (sensorInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	if v, ok := attrFloat(attrs, "sTempS.MeasuredValue_x100"); ok {
		state["temperature"] = v / 100
	}

	if v, ok := attrFloat(attrs, "sRelativeHumidity.MeasuredValue_x100"); ok {
		state["humidity"] = v / 100
	}

	if v, ok := attrFloat(attrs, "sPowerS.BatteryVoltage_x10"); ok {
		state["battery"] = voltageToBatteryPct(v/10, d.Model)
	}

	return state
}

func (sensorInterpreter) Encode(_ *Device, cmd Command) (*Delta, error) {
	return nil, unsupported(FamilySensor, cmd)
}
