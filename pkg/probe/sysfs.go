package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/battlens/battlens/pkg/battery"
)

const defaultSysfsRoot = "/sys/class/power_supply"

// SysfsReader reads battery state from the Linux power-supply class.
// This is the structured, highest-trust source on Linux: the kernel
// exposes every field as a key/value pair in each supply's uevent file.
type SysfsReader struct {
	// Root is the power-supply class directory, overridable in tests.
	Root string
}

func NewSysfsReader() *SysfsReader {
	return &SysfsReader{Root: defaultSysfsRoot}
}

func (r *SysfsReader) Name() string { return "sysfs" }
func (r *SysfsReader) Tier() int    { return TierStructured }

func (r *SysfsReader) Probe(_ context.Context) ([]RawRecord, error) {
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		return nil, err // ErrNotExist / ErrPermission classify at the prober
	}

	var batteries []string
	acOnline := false
	for _, e := range entries {
		dir := filepath.Join(r.Root, e.Name())
		switch readTrimmed(filepath.Join(dir, "type")) {
		case "Battery":
			batteries = append(batteries, dir)
		case "Mains":
			if readTrimmed(filepath.Join(dir, "online")) == "1" {
				acOnline = true
			}
		}
	}
	sort.Strings(batteries)

	if len(batteries) == 0 {
		// The facility exists but no battery device does. Desktop
		// machine, not a probe failure.
		return nil, nil
	}

	records := make([]RawRecord, 0, len(batteries))
	for i, dir := range batteries {
		props, err := r.loadProps(dir)
		if err != nil {
			return nil, err
		}
		if props["POWER_SUPPLY_PRESENT"] == "0" {
			continue
		}
		records = append(records, RawRecord{
			Source:  r.Name(),
			Battery: battery.Identity(fmt.Sprintf("bat%d", i)),
			Values:  sysfsValues(props, acOnline),
		})
	}

	return records, nil
}

// loadProps reads the supply's uevent file, falling back to individual
// property files on kernels that do not populate uevent.
func (r *SysfsReader) loadProps(dir string) (map[string]string, error) {
	if data, err := os.ReadFile(filepath.Join(dir, "uevent")); err == nil {
		return parseUevent(string(data)), nil
	} else if os.IsPermission(err) {
		return nil, err
	}

	props := make(map[string]string)
	for _, name := range []string{
		"present", "capacity", "status", "cycle_count", "technology",
		"manufacturer", "serial_number", "temp",
		"energy_full_design", "energy_full", "energy_now", "power_now",
		"charge_full_design", "charge_full", "charge_now", "current_now",
		"voltage_now", "voltage_min_design",
	} {
		if v := readTrimmed(filepath.Join(dir, name)); v != "" {
			props["POWER_SUPPLY_"+strings.ToUpper(name)] = v
		}
	}
	return props, nil
}

// sysfsValues maps POWER_SUPPLY_* properties to the canonical field
// enum. Energy values are preferred over charge values; charge values
// are emitted in µAh and converted by the normalizer using the record's
// voltage.
func sysfsValues(props map[string]string, acOnline bool) map[battery.Field]RawValue {
	values := make(map[battery.Field]RawValue)

	set := func(f battery.Field, text string, unit battery.Unit) {
		if text != "" {
			values[f] = RawValue{Text: text, Unit: unit}
		}
	}

	set(battery.FieldPercentage, props["POWER_SUPPLY_CAPACITY"], battery.UnitPercent)
	set(battery.FieldCycleCount, props["POWER_SUPPLY_CYCLE_COUNT"], battery.UnitNone)
	set(battery.FieldTechnology, props["POWER_SUPPLY_TECHNOLOGY"], battery.UnitNone)
	set(battery.FieldManufacturer, props["POWER_SUPPLY_MANUFACTURER"], battery.UnitNone)
	set(battery.FieldSerial, props["POWER_SUPPLY_SERIAL_NUMBER"], battery.UnitNone)
	set(battery.FieldTemperature, props["POWER_SUPPLY_TEMP"], battery.UnitTenthCelsius)

	status := props["POWER_SUPPLY_STATUS"]
	// Some firmware reports "Discharging" at full capacity while on AC
	// power (seen on several ThinkPads). Correct it before it reaches
	// the normalizer.
	if status == "Discharging" && props["POWER_SUPPLY_CAPACITY"] == "100" && acOnline {
		status = "Full"
	}
	set(battery.FieldState, status, battery.UnitNone)

	if v := props["POWER_SUPPLY_ENERGY_FULL_DESIGN"]; v != "" {
		set(battery.FieldDesignCapacity, v, battery.UnitMicroWattHour)
	} else {
		set(battery.FieldDesignCapacity, props["POWER_SUPPLY_CHARGE_FULL_DESIGN"], battery.UnitMicroAmpHour)
	}
	if v := props["POWER_SUPPLY_ENERGY_FULL"]; v != "" {
		set(battery.FieldFullChargeCapacity, v, battery.UnitMicroWattHour)
	} else {
		set(battery.FieldFullChargeCapacity, props["POWER_SUPPLY_CHARGE_FULL"], battery.UnitMicroAmpHour)
	}
	if v := props["POWER_SUPPLY_ENERGY_NOW"]; v != "" {
		set(battery.FieldCurrentCapacity, v, battery.UnitMicroWattHour)
	} else {
		set(battery.FieldCurrentCapacity, props["POWER_SUPPLY_CHARGE_NOW"], battery.UnitMicroAmpHour)
	}
	if v := props["POWER_SUPPLY_POWER_NOW"]; v != "" {
		set(battery.FieldChargeRate, v, battery.UnitMicroWatt)
	} else {
		set(battery.FieldChargeRate, props["POWER_SUPPLY_CURRENT_NOW"], battery.UnitMicroAmp)
	}
	if v := props["POWER_SUPPLY_VOLTAGE_NOW"]; v != "" {
		set(battery.FieldVoltage, v, battery.UnitMicroVolt)
	} else {
		set(battery.FieldVoltage, props["POWER_SUPPLY_VOLTAGE_MIN_DESIGN"], battery.UnitMicroVolt)
	}

	return values
}

func parseUevent(data string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			props[k] = strings.TrimSpace(v)
		}
	}
	return props
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
