package it600

// Diagnostic tables captured from the vendor's cloud application.

// thermostatErrorCodes maps sIT600TH error flags to descriptions.
// A flag value of 1 marks the condition active.
var thermostatErrorCodes = map[string]string{
	"Error01": "Emergency mode active",
	"Error02": "Frost protection active",
	"Error03": "Internal temperature sensor failure",
	"Error04": "External temperature sensor failure",
	"Error05": "Floor temperature sensor failure",
	"Error06": "Temperature reading out of range",
	"Error07": "Calibration required",
	"Error08": "Wiring centre communication lost",
	"Error09": "Receiver communication lost",
	"Error10": "TRV communication lost",
	"Error11": "Boiler relay failure",
	"Error12": "Valve actuator failure",
	"Error21": "Thermostat battery low",
	"Error22": "TRV battery low",
	"Error23": "Sensor battery low",
	"Error25": "Scheduled update failed",
}

// batteryErrorCodes marks which thermostat error flags describe battery
// conditions rather than operational problems.
var batteryErrorCodes = map[string]struct{}{
	"Error21": {},
	"Error22": {},
	"Error23": {},
}

// batteryOEMModels lists the battery-powered thermostat models. All
// other iT600 thermostats are mains-powered and report a meaningless 0
// in the battery digit of Status_d.
var batteryOEMModels = map[string]struct{}{
	"SQ610RF":     {},
	"SQ610RFNH":   {},
	"HTRP-RF(50)": {},
	"TS600":       {},
	"VS10WRF":     {},
	"VS10BRF":     {},
	"VS20WRF":     {},
	"VS20BRF":     {},
}

// batteryLevelMap converts the 0-5 battery digit of Status_d to a
// percentage.
var batteryLevelMap = map[int]int{
	0: 0,
	1: 20,
	2: 40,
	3: 60,
	4: 80,
	5: 100,
}

// Battery voltage curves for sPowerS.BatteryVoltage_x10 devices.
// Each entry is a minimum voltage and the percentage reported at or
// above it; the first match wins.
type voltageStep struct {
	volts float64
	pct   int
}

var batteryVoltageCurves = map[string][]voltageStep{
	// Window/door sensors run on a single CR2 cell.
	"window": {
		{volts: 3.0, pct: 100},
		{volts: 2.9, pct: 75},
		{volts: 2.7, pct: 50},
		{volts: 2.5, pct: 25},
		{volts: 2.3, pct: 10},
	},
	// Door curve doubles as the default for unknown battery devices.
	"door": {
		{volts: 3.0, pct: 100},
		{volts: 2.8, pct: 75},
		{volts: 2.6, pct: 50},
		{volts: 2.4, pct: 25},
		{volts: 2.2, pct: 10},
	},
	// Energy meters run on two AA cells.
	"energy_meter": {
		{volts: 3.1, pct: 100},
		{volts: 2.9, pct: 75},
		{volts: 2.7, pct: 50},
		{volts: 2.5, pct: 25},
		{volts: 2.3, pct: 10},
	},
}

var windowVoltageModels = map[string]struct{}{
	"SW600": {},
	"OS600": {},
}

var doorVoltageModels = map[string]struct{}{
	"WLS600":         {},
	"SmokeSensor-EM": {},
}

var energyMeterVoltageModels = map[string]struct{}{
	"SM600": {},
	"PS600": {},
}

// voltageToBatteryPct converts a battery voltage to a percentage using
// the model's curve. Unknown models fall back to the door curve.
func voltageToBatteryPct(volts float64, model string) int {
	curve := "door"
	if _, ok := windowVoltageModels[model]; ok {
		curve = "window"
	} else if _, ok := doorVoltageModels[model]; ok {
		curve = "door"
	} else if _, ok := energyMeterVoltageModels[model]; ok {
		curve = "energy_meter"
	}

	for _, step := range batteryVoltageCurves[curve] {
		if volts >= step.volts {
			return step.pct
		}
	}
	return 0
}
