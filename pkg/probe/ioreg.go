package probe

import (
	"context"
	"strconv"
	"strings"

	"github.com/battlens/battlens/pkg/battery"
)

// IoregReader scrapes `ioreg -rn AppleSmartBattery` on macOS. The smart
// battery registry entry carries the full field set (raw capacities in
// mAh, voltage in mV, signed amperage in mA, temperature in centi-°C),
// which makes it the highest-trust macOS source even though it arrives
// as scraped text.
type IoregReader struct{}

func NewIoregReader() *IoregReader { return &IoregReader{} }

func (r *IoregReader) Name() string { return "ioreg" }
func (r *IoregReader) Tier() int    { return TierStructured }

func (r *IoregReader) Probe(ctx context.Context) ([]RawRecord, error) {
	out, err := runCommand(ctx, "ioreg", "-rn", "AppleSmartBattery")
	if err != nil {
		return nil, err
	}

	props := parseIoreg(string(out))
	if len(props) == 0 {
		// ioreg ran but there is no AppleSmartBattery entry.
		return nil, nil
	}
	if props["BatteryInstalled"] == "No" {
		return nil, nil
	}

	return []RawRecord{{
		Source:  r.Name(),
		Battery: battery.Identity("bat0"),
		Values:  ioregValues(props),
	}}, nil
}

// parseIoreg extracts the `"Key" = Value` pairs of the registry dump.
// Nested dictionaries are ignored; every field we need is top-level.
func parseIoreg(out string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, " = ")
		if !ok || !strings.HasPrefix(key, `"`) {
			continue
		}
		key = strings.Trim(key, `"`)
		value = strings.TrimSpace(value)
		if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "(") {
			continue
		}
		props[key] = strings.Trim(value, `"`)
	}
	return props
}

func ioregValues(props map[string]string) map[battery.Field]RawValue {
	values := make(map[battery.Field]RawValue)

	set := func(f battery.Field, text string, unit battery.Unit) {
		if text != "" {
			values[f] = RawValue{Text: text, Unit: unit}
		}
	}

	// On modern macOS CurrentCapacity/MaxCapacity are percentages and
	// the mAh values live in the AppleRaw* keys. On older releases
	// CurrentCapacity itself is the mAh value.
	if v, ok := intProp(props, "CurrentCapacity"); ok {
		if v <= 100 {
			set(battery.FieldPercentage, props["CurrentCapacity"], battery.UnitPercent)
		} else {
			set(battery.FieldCurrentCapacity, props["CurrentCapacity"], battery.UnitMilliAmpHour)
		}
	}
	if v, ok := intProp(props, "MaxCapacity"); ok && v > 100 {
		set(battery.FieldFullChargeCapacity, props["MaxCapacity"], battery.UnitMilliAmpHour)
	}
	set(battery.FieldCurrentCapacity, props["AppleRawCurrentCapacity"], battery.UnitMilliAmpHour)
	set(battery.FieldFullChargeCapacity, props["AppleRawMaxCapacity"], battery.UnitMilliAmpHour)
	set(battery.FieldDesignCapacity, props["DesignCapacity"], battery.UnitMilliAmpHour)

	set(battery.FieldCycleCount, props["CycleCount"], battery.UnitNone)
	set(battery.FieldVoltage, props["Voltage"], battery.UnitMilliVolt)
	set(battery.FieldTemperature, props["Temperature"], battery.UnitCentiCelsius)
	set(battery.FieldSerial, props["Serial"], battery.UnitNone)
	if v := props["Manufacturer"]; v != "" {
		set(battery.FieldManufacturer, v, battery.UnitNone)
	} else {
		set(battery.FieldManufacturer, props["DeviceName"], battery.UnitNone)
	}

	// ioreg prints negative amperage as a wrapped-around uint64.
	if raw := props["Amperage"]; raw != "" {
		if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
			set(battery.FieldChargeRate, strconv.FormatInt(int64(u), 10), battery.UnitMilliAmp)
		}
	}

	set(battery.FieldState, ioregState(props), battery.UnitNone)

	return values
}

func ioregState(props map[string]string) string {
	switch {
	case props["FullyCharged"] == "Yes":
		return "full"
	case props["IsCharging"] == "Yes":
		return "charging"
	case props["ExternalConnected"] == "Yes":
		return "not charging"
	case props["ExternalConnected"] == "No":
		return "discharging"
	default:
		return ""
	}
}

func intProp(props map[string]string, key string) (int64, bool) {
	v, err := strconv.ParseInt(props[key], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
