// Package normalize converts raw probe records into typed samples in
// canonical units: percent, mWh, mW, V, °C. Values outside their domain
// are dropped, not clamped, so the reconciler can still fall back to
// another source for that field.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/probe"
)

// Value is one normalized field. Which member is meaningful depends on
// the field: numeric fields use Num, string fields Str, the state field
// State.
type Value struct {
	Num   float64
	Str   string
	State battery.PowerState
}

// Sample is one source's normalized view of one battery. Fields the
// source did not report, or reported out of domain, are absent.
type Sample struct {
	Source  string
	Tier    int
	Battery battery.Identity
	Fields  map[battery.Field]Value
}

// Domain limits. Values outside these are implausible and dropped.
const (
	maxVoltage     = 1000 // V
	minTemperature = -40  // °C
	maxTemperature = 120  // °C
)

// Record normalizes one raw record. Fields that cannot be converted
// (unparsable text, out-of-domain value, charge unit with no voltage to
// convert by) are omitted; normalization never fails as a whole.
func Record(rec probe.RawRecord, tier int) Sample {
	s := Sample{
		Source:  rec.Source,
		Tier:    tier,
		Battery: rec.Battery,
		Fields:  make(map[battery.Field]Value),
	}

	for _, f := range []battery.Field{battery.FieldTechnology, battery.FieldManufacturer, battery.FieldSerial} {
		if raw, ok := rec.Values[f]; ok {
			if text := strings.TrimSpace(raw.Text); text != "" {
				s.Fields[f] = Value{Str: text}
			}
		}
	}

	// An unrecognized state maps to Unknown, which we treat the same as
	// absent: recording Unknown would mask a lower-tier source that
	// does know the state.
	state := battery.Unknown
	if raw, ok := rec.Values[battery.FieldState]; ok {
		if st := battery.ParseState(raw.Text); st != battery.Unknown {
			state = st
			s.Fields[battery.FieldState] = Value{State: st}
		}
	}

	// Voltage first: charge-based capacities need it for conversion.
	volts, hasVolts := 0.0, false
	if raw, ok := rec.Values[battery.FieldVoltage]; ok {
		if v, ok := toVolts(raw); ok && v > 0 && v < maxVoltage {
			volts, hasVolts = v, true
			s.Fields[battery.FieldVoltage] = Value{Num: v}
		}
	}

	if raw, ok := rec.Values[battery.FieldPercentage]; ok {
		if v, ok := parseNum(raw.Text); ok && v >= 0 && v <= 100 {
			s.Fields[battery.FieldPercentage] = Value{Num: v}
		}
	}

	for _, f := range []battery.Field{battery.FieldDesignCapacity, battery.FieldFullChargeCapacity, battery.FieldCurrentCapacity} {
		raw, ok := rec.Values[f]
		if !ok {
			continue
		}
		if mwh, ok := toMilliWattHours(raw, volts, hasVolts); ok && mwh >= 0 {
			s.Fields[f] = Value{Num: mwh}
		}
	}

	if raw, ok := rec.Values[battery.FieldChargeRate]; ok {
		if mw, ok := toMilliWatts(raw, volts, hasVolts); ok {
			s.Fields[battery.FieldChargeRate] = Value{Num: signRate(mw, state)}
		}
	}

	if raw, ok := rec.Values[battery.FieldCycleCount]; ok {
		if v, ok := parseNum(raw.Text); ok && v >= 0 {
			s.Fields[battery.FieldCycleCount] = Value{Num: math.Trunc(v)}
		}
	}

	if raw, ok := rec.Values[battery.FieldTemperature]; ok {
		if c, ok := toCelsius(raw); ok && c >= minTemperature && c <= maxTemperature {
			s.Fields[battery.FieldTemperature] = Value{Num: c}
		}
	}

	return s
}

func parseNum(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func toVolts(raw probe.RawValue) (float64, bool) {
	v, ok := parseNum(raw.Text)
	if !ok {
		return 0, false
	}
	switch raw.Unit {
	case battery.UnitVolt:
		return v, true
	case battery.UnitMilliVolt:
		return v / 1e3, true
	case battery.UnitMicroVolt:
		return v / 1e6, true
	default:
		return 0, false
	}
}

// toMilliWattHours converts an energy or charge value to mWh. Charge
// units (mAh, µAh) require a voltage; without one the value is dropped
// rather than guessed.
func toMilliWattHours(raw probe.RawValue, volts float64, hasVolts bool) (float64, bool) {
	v, ok := parseNum(raw.Text)
	if !ok {
		return 0, false
	}
	switch raw.Unit {
	case battery.UnitMilliWattHour:
		return v, true
	case battery.UnitMicroWattHour:
		return v / 1e3, true
	case battery.UnitMilliAmpHour:
		if !hasVolts {
			return 0, false
		}
		return v * volts, true
	case battery.UnitMicroAmpHour:
		if !hasVolts {
			return 0, false
		}
		return v / 1e3 * volts, true
	default:
		return 0, false
	}
}

func toMilliWatts(raw probe.RawValue, volts float64, hasVolts bool) (float64, bool) {
	v, ok := parseNum(raw.Text)
	if !ok {
		return 0, false
	}
	switch raw.Unit {
	case battery.UnitMilliWatt:
		return v, true
	case battery.UnitMicroWatt:
		return v / 1e3, true
	case battery.UnitMilliAmp:
		if !hasVolts {
			return 0, false
		}
		return v * volts, true
	case battery.UnitMicroAmp:
		if !hasVolts {
			return 0, false
		}
		return v / 1e3 * volts, true
	default:
		return 0, false
	}
}

// signRate fixes the charge-rate sign from the charging state: positive
// while charging, negative while discharging. Sources disagree on what
// the sign of a raw rate means, the state is authoritative.
func signRate(mw float64, state battery.PowerState) float64 {
	switch state {
	case battery.Charging:
		return math.Abs(mw)
	case battery.Discharging:
		return -math.Abs(mw)
	default:
		return mw
	}
}

func toCelsius(raw probe.RawValue) (float64, bool) {
	v, ok := parseNum(raw.Text)
	if !ok {
		return 0, false
	}
	switch raw.Unit {
	case battery.UnitCelsius:
		return v, true
	case battery.UnitTenthCelsius:
		return v / 10, true
	case battery.UnitCentiCelsius:
		return v / 100, true
	default:
		return 0, false
	}
}
