package it600

// Attribute schema validation applied at snapshot merge time.
//
// Keys are the flattened "<cluster>.<attr>" names. Only attributes with
// documented value sets are validated; everything else passes through
// untouched so firmware additions never break a merge.

type rangeCheck struct {
	min, max float64
}

func (r rangeCheck) valid(v float64) bool { return v >= r.min && v <= r.max }

type enumCheck map[float64]struct{}

func (e enumCheck) valid(v float64) bool {
	_, ok := e[v]
	return ok
}

func newEnum(values ...float64) enumCheck {
	e := make(enumCheck, len(values))
	for _, v := range values {
		e[v] = struct{}{}
	}
	return e
}

var (
	binaryFlag = newEnum(0, 1)

	// HoldType values the firmware is known to emit: 0 follow schedule,
	// 1 temporary hold, 2 permanent hold, 7 off, 10 eco.
	holdTypes = newEnum(0, 1, 2, 7, 10)

	// Centi-degree readings; the hardware range is well inside this.
	tempX100 = rangeCheck{min: -5000, max: 15000}

	percentLevel = rangeCheck{min: 0, max: 100}

	fanModes = rangeCheck{min: 0, max: 5}
)

// numericChecks maps attribute keys to their value constraints.
var numericChecks = map[string]interface{ valid(float64) bool }{
	"sIT600TH.HoldType":              holdTypes,
	"sComm.HoldType":                 holdTypes,
	"sIT600TH.LocalTemperature_x100": tempX100,
	"sIT600TH.HeatingSetpoint_x100":  tempX100,
	"sIT600TH.MaxHeatSetpoint_x100":  tempX100,
	"sIT600TH.MinHeatSetpoint_x100":  tempX100,
	"sTherS.LocalTemperature_x100":   tempX100,
	"sTherS.HeatingSetpoint_x100":    tempX100,
	"sTherS.CoolingSetpoint_x100":    tempX100,
	"sTherS.MaxHeatSetpoint_x100":    tempX100,
	"sTherS.MinHeatSetpoint_x100":    tempX100,
	"sTherS.MaxCoolSetpoint_x100":    tempX100,
	"sTherS.MinCoolSetpoint_x100":    tempX100,
	"sTempS.MeasuredValue_x100":      tempX100,
	"sFanS.FanMode":                  fanModes,
	"sOnOffS.OnOff":                  binaryFlag,
	"sIASZS.ErrorIASZSAlarmed1":      binaryFlag,
	"sIASZS.ErrorIASZSLowBattery":    binaryFlag,
	"sPowerS.ErrorPowerSLowBattery":  binaryFlag,
	"sIT600I.RelayStatus":            binaryFlag,
	"sTherUIS.LockKey":               binaryFlag,
	"sZDOInfo.OnlineStatus_i":        binaryFlag,
	"sLevelS.CurrentLevel":           percentLevel,
}

// attributeValid reports whether a raw attribute value passes its
// schema constraint. Attributes without a registered constraint are
// always valid.
func attributeValid(key string, value any) bool {
	check, ok := numericChecks[key]
	if !ok {
		return true
	}
	v, ok := value.(float64)
	if !ok {
		return false
	}
	return check.valid(v)
}
