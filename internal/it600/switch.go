package it600

// switchInterpreter handles smart plugs and relays (sOnOffS).
type switchInterpreter struct{}

func (switchInterpreter) Decode(d *Device) State {
	attrs := d.Attributes
	state := State{}

	if v, ok := attrFloat(attrs, "sOnOffS.OnOff"); ok {
		state["on"] = v == 1
	}

	switch d.Model {
	case "SP600", "SPE600":
		state["device_class"] = "outlet"
	default:
		state["device_class"] = "switch"
	}

	// Metering plugs report live power and cumulative energy.
	if v, ok := attrFloat(attrs, "sMeteringS.InstantaneousDemand"); ok {
		state["power"] = v
	}
	if v, ok := attrFloat(attrs, "sMeteringS.CurrentSummationDelivered"); ok {
		state["energy"] = v / 1000
	}

	return state
}

func (switchInterpreter) Encode(d *Device, cmd Command) (*Delta, error) {
	var value int
	switch cmd.Name {
	case CmdTurnOn:
		value = 1
	case CmdTurnOff:
		value = 0
	default:
		return nil, unsupported(FamilySwitch, cmd)
	}

	return &Delta{
		Wire:  map[string]map[string]any{"sOnOffS": {"SetOnOff": value}},
		Local: map[string]any{"sOnOffS.OnOff": float64(value)},
	}, nil
}
