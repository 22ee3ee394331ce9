package it600

import (
	"errors"
	"testing"
)

func TestInterpreterFor(t *testing.T) {
	families := []Family{
		FamilyThermostat, FamilyFanCoil, FamilySwitch,
		FamilyCover, FamilyBinarySensor, FamilySensor,
	}
	for _, f := range families {
		if _, ok := interpreterFor(f); !ok {
			t.Errorf("no interpreter for %q", f)
		}
	}
	if _, ok := interpreterFor("toaster"); ok {
		t.Error("interpreter found for unknown family")
	}
}

func TestRoundHalf(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{21.0, 21.0},
		{21.2, 21.0},
		{21.25, 21.5},
		{21.7, 21.5},
		{21.8, 22.0},
		{-0.3, -0.5},
	}
	for _, tt := range tests {
		if got := roundHalf(tt.in); got != tt.want {
			t.Errorf("roundHalf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSwitchInterpreter_Decode(t *testing.T) {
	d := &Device{
		ID:     "plug1",
		Family: FamilySwitch,
		Model:  "SP600",
		Attributes: map[string]any{
			"sOnOffS.OnOff":                        float64(1),
			"sMeteringS.InstantaneousDemand":       float64(42),
			"sMeteringS.CurrentSummationDelivered": float64(1500),
		},
	}

	state := switchInterpreter{}.Decode(d)
	if state["on"] != true {
		t.Error("on = false, want true")
	}
	if state["device_class"] != "outlet" {
		t.Errorf("device_class = %v, want outlet for SP600", state["device_class"])
	}
	if state["power"] != float64(42) {
		t.Errorf("power = %v, want 42", state["power"])
	}
	if state["energy"] != 1.5 {
		t.Errorf("energy = %v, want 1.5 kWh", state["energy"])
	}

	d.Model = "RS600"
	if got := (switchInterpreter{}).Decode(d)["device_class"]; got != "switch" {
		t.Errorf("device_class = %v, want switch for relay", got)
	}
}

func TestSwitchInterpreter_Encode(t *testing.T) {
	d := &Device{ID: "plug1", Family: FamilySwitch, Attributes: map[string]any{}}

	delta, err := switchInterpreter{}.Encode(d, Command{Name: CmdTurnOn})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if delta.Wire["sOnOffS"]["SetOnOff"] != 1 {
		t.Errorf("Wire = %v", delta.Wire)
	}
	if delta.Local["sOnOffS.OnOff"] != float64(1) {
		t.Errorf("Local = %v", delta.Local)
	}

	delta, err = switchInterpreter{}.Encode(d, Command{Name: CmdTurnOff})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if delta.Wire["sOnOffS"]["SetOnOff"] != 0 {
		t.Errorf("Wire = %v", delta.Wire)
	}

	if _, err := (switchInterpreter{}).Encode(d, Command{Name: CmdSetTemperature}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("error = %v, want ErrUnsupportedCommand", err)
	}
}

func TestCoverInterpreter_Decode(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  map[string]any
	}{
		{
			name: "fully open",
			attrs: map[string]any{
				"sLevelS.CurrentLevel": float64(100),
			},
			want: map[string]any{"position": 100, "is_open": true, "is_closed": false},
		},
		{
			name: "fully closed",
			attrs: map[string]any{
				"sLevelS.CurrentLevel": float64(0),
			},
			want: map[string]any{"position": 0, "is_open": false, "is_closed": true},
		},
		{
			name: "opening towards target",
			attrs: map[string]any{
				"sLevelS.CurrentLevel":  float64(40),
				"sLevelS.MoveToLevel_f": "64FFFF",
			},
			want: map[string]any{"position": 40, "target": 100, "is_opening": true, "is_closing": false},
		},
		{
			name: "closing towards target",
			attrs: map[string]any{
				"sLevelS.CurrentLevel":  float64(80),
				"sLevelS.MoveToLevel_f": "28FFFF",
			},
			want: map[string]any{"position": 80, "target": 40, "is_opening": false, "is_closing": true},
		},
		{
			name: "position synthesized from relay",
			attrs: map[string]any{
				"sOnOffS.OnOff": float64(1),
			},
			want: map[string]any{"position": 100, "is_open": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{ID: "cover1", Family: FamilyCover, Attributes: tt.attrs}
			state := coverInterpreter{}.Decode(d)
			for key, want := range tt.want {
				if got, ok := state[key]; !ok || got != want {
					t.Errorf("state[%q] = %v (present=%v), want %v", key, got, ok, want)
				}
			}
		})
	}
}

func TestCoverInterpreter_Encode(t *testing.T) {
	d := &Device{ID: "cover1", Family: FamilyCover, Attributes: map[string]any{}}
	interp := coverInterpreter{}

	tests := []struct {
		name     string
		cmd      Command
		wantWire string
		wantErr  error
	}{
		{
			name:     "set position",
			cmd:      Command{Name: CmdSetPosition, Params: map[string]any{"position": 40.0}},
			wantWire: "28FFFF",
		},
		{
			name:     "open",
			cmd:      Command{Name: CmdOpen},
			wantWire: "64FFFF",
		},
		{
			name:     "close",
			cmd:      Command{Name: CmdClose},
			wantWire: "00FFFF",
		},
		{
			name:    "position out of range",
			cmd:     Command{Name: CmdSetPosition, Params: map[string]any{"position": 150.0}},
			wantErr: ErrInvalidPosition,
		},
		{
			name:    "negative position",
			cmd:     Command{Name: CmdSetPosition, Params: map[string]any{"position": -5.0}},
			wantErr: ErrInvalidPosition,
		},
		{
			name:    "thermostat command rejected",
			cmd:     Command{Name: CmdSetMode, Params: map[string]any{"mode": ModeHeat}},
			wantErr: ErrUnsupportedCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, err := interp.Encode(d, tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Encode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if got := delta.Wire["sLevelS"]["SetMoveToLevel"]; got != tt.wantWire {
				t.Errorf("SetMoveToLevel = %v, want %v", got, tt.wantWire)
			}
			if got := delta.Local["sLevelS.MoveToLevel_f"]; got != tt.wantWire {
				t.Errorf("Local MoveToLevel_f = %v, want %v", got, tt.wantWire)
			}
		})
	}
}

func TestBinarySensorInterpreter_Decode(t *testing.T) {
	tests := []struct {
		name  string
		model string
		attrs map[string]any
		want  map[string]any
	}{
		{
			name:  "window sensor alarmed",
			model: "SW600",
			attrs: map[string]any{
				"sIASZS.ErrorIASZSAlarmed1":   float64(1),
				"sIASZS.ErrorIASZSLowBattery": float64(0),
			},
			want: map[string]any{"device_class": "window", "triggered": true, "low_battery": false},
		},
		{
			name:  "leak sensor quiet",
			model: "WLS600",
			attrs: map[string]any{
				"sIASZS.ErrorIASZSAlarmed1": float64(0),
			},
			want: map[string]any{"device_class": "moisture", "triggered": false},
		},
		{
			name:  "smoke sensor",
			model: "SmokeSensor-EM",
			attrs: map[string]any{
				"sIASZS.ErrorIASZSAlarmed1": float64(1),
			},
			want: map[string]any{"device_class": "smoke", "triggered": true},
		},
		{
			name:  "trv relay state wins",
			model: "it600MINITRV",
			attrs: map[string]any{
				"sIT600I.RelayStatus":       float64(1),
				"sIASZS.ErrorIASZSAlarmed1": float64(0),
			},
			want: map[string]any{"device_class": "heat", "triggered": true},
		},
		{
			name:  "low battery from power cluster",
			model: "OS600",
			attrs: map[string]any{
				"sPowerS.ErrorPowerSLowBattery": float64(1),
			},
			want: map[string]any{"low_battery": true},
		},
		{
			name:  "temperature and battery voltage",
			model: "SW600",
			attrs: map[string]any{
				"sTempS.MeasuredValue_x100":  float64(1850),
				"sPowerS.BatteryVoltage_x10": float64(30),
			},
			want: map[string]any{"temperature": 18.5, "battery": 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{ID: "bs1", Family: FamilyBinarySensor, Model: tt.model, Attributes: tt.attrs}
			state := binarySensorInterpreter{}.Decode(d)
			for key, want := range tt.want {
				if got, ok := state[key]; !ok || got != want {
					t.Errorf("state[%q] = %v (present=%v), want %v", key, got, ok, want)
				}
			}
		})
	}
}

func TestSensorInterpreter_Decode(t *testing.T) {
	d := &Device{
		ID:     "ts1",
		Family: FamilySensor,
		Model:  "TS600",
		Attributes: map[string]any{
			"sTempS.MeasuredValue_x100":            float64(2050),
			"sRelativeHumidity.MeasuredValue_x100": float64(4700),
			"sPowerS.BatteryVoltage_x10":           float64(26),
		},
	}

	state := sensorInterpreter{}.Decode(d)
	if state["temperature"] != 20.5 {
		t.Errorf("temperature = %v, want 20.5", state["temperature"])
	}
	if state["humidity"] != float64(47) {
		t.Errorf("humidity = %v, want 47", state["humidity"])
	}
	if state["battery"] != 50 {
		t.Errorf("battery = %v, want 50", state["battery"])
	}
}

func TestSensorInterpreters_RejectCommands(t *testing.T) {
	bs := &Device{ID: "bs1", Family: FamilyBinarySensor, Attributes: map[string]any{}}
	if _, err := (binarySensorInterpreter{}).Encode(bs, Command{Name: CmdTurnOn}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("binary sensor error = %v, want ErrUnsupportedCommand", err)
	}

	s := &Device{ID: "s1", Family: FamilySensor, Attributes: map[string]any{}}
	if _, err := (sensorInterpreter{}).Encode(s, Command{Name: CmdSetTemperature}); !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("sensor error = %v, want ErrUnsupportedCommand", err)
	}
}

func TestVoltageToBatteryPct(t *testing.T) {
	tests := []struct {
		model string
		volts float64
		want  int
	}{
		{"SW600", 3.0, 100},
		{"SW600", 2.9, 75},
		{"SW600", 2.2, 0},
		{"WLS600", 2.8, 75},
		{"SM600", 3.1, 100},
		{"SM600", 2.4, 10},
		{"unknown", 2.6, 50},
	}
	for _, tt := range tests {
		if got := voltageToBatteryPct(tt.volts, tt.model); got != tt.want {
			t.Errorf("voltageToBatteryPct(%v, %s) = %d, want %d", tt.volts, tt.model, got, tt.want)
		}
	}
}
