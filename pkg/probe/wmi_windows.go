//go:build windows

package probe

import (
	"context"
	"sort"
	"strconv"

	"github.com/yusufpapurcu/wmi"

	"github.com/battlens/battlens/pkg/battery"
)

// The root\wmi battery classes expose per-battery data keyed by
// InstanceName, all capacities in mWh and rates in mW.
const wmiNamespace = `root\wmi`

type wmiBatteryStatus struct {
	InstanceName      string
	Charging          bool
	Discharging       bool
	PowerOnline       bool
	RemainingCapacity uint32
	ChargeRate        int32
	DischargeRate     int32
	Voltage           uint32
}

type wmiFullChargedCapacity struct {
	InstanceName        string
	FullChargedCapacity uint32
}

type wmiStaticData struct {
	InstanceName     string
	DesignedCapacity uint32
	ManufactureName  string
	SerialNumber     string
}

type wmiCycleCount struct {
	InstanceName string
	CycleCount   uint32
}

// WMIReader queries the Windows battery WMI classes. This is the
// structured, highest-trust source on Windows.
type WMIReader struct{}

func NewWMIReader() *WMIReader { return &WMIReader{} }

func (r *WMIReader) Name() string { return "wmi" }
func (r *WMIReader) Tier() int    { return TierStructured }

func (r *WMIReader) Probe(_ context.Context) ([]RawRecord, error) {
	var statuses []wmiBatteryStatus
	err := wmi.QueryNamespace(
		"SELECT InstanceName, Charging, Discharging, PowerOnline, RemainingCapacity, ChargeRate, DischargeRate, Voltage FROM BatteryStatus",
		&statuses, wmiNamespace)
	if err != nil {
		return nil, &Failure{Source: r.Name(), Reason: ReasonUnavailable, Err: err}
	}
	if len(statuses) == 0 {
		return nil, nil
	}

	// The remaining classes enrich the record; their absence is not a
	// failure.
	full := make(map[string]wmiFullChargedCapacity)
	var fullRows []wmiFullChargedCapacity
	if err := wmi.QueryNamespace(
		"SELECT InstanceName, FullChargedCapacity FROM BatteryFullChargedCapacity",
		&fullRows, wmiNamespace); err == nil {
		for _, row := range fullRows {
			full[row.InstanceName] = row
		}
	}

	static := make(map[string]wmiStaticData)
	var staticRows []wmiStaticData
	if err := wmi.QueryNamespace(
		"SELECT InstanceName, DesignedCapacity, ManufactureName, SerialNumber FROM BatteryStaticData",
		&staticRows, wmiNamespace); err == nil {
		for _, row := range staticRows {
			static[row.InstanceName] = row
		}
	}

	cycles := make(map[string]wmiCycleCount)
	var cycleRows []wmiCycleCount
	if err := wmi.QueryNamespace(
		"SELECT InstanceName, CycleCount FROM BatteryCycleCount",
		&cycleRows, wmiNamespace); err == nil {
		for _, row := range cycleRows {
			cycles[row.InstanceName] = row
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].InstanceName < statuses[j].InstanceName
	})

	records := make([]RawRecord, 0, len(statuses))
	for i, st := range statuses {
		values := make(map[battery.Field]RawValue)
		set := func(f battery.Field, text string, unit battery.Unit) {
			if text != "" {
				values[f] = RawValue{Text: text, Unit: unit}
			}
		}

		set(battery.FieldState, wmiState(st, full[st.InstanceName]), battery.UnitNone)
		set(battery.FieldCurrentCapacity, strconv.FormatUint(uint64(st.RemainingCapacity), 10), battery.UnitMilliWattHour)
		if st.Voltage > 0 {
			set(battery.FieldVoltage, strconv.FormatUint(uint64(st.Voltage), 10), battery.UnitMilliVolt)
		}
		if rate := wmiRate(st); rate != 0 {
			set(battery.FieldChargeRate, strconv.FormatInt(rate, 10), battery.UnitMilliWatt)
		}

		if fc, ok := full[st.InstanceName]; ok && fc.FullChargedCapacity > 0 {
			set(battery.FieldFullChargeCapacity, strconv.FormatUint(uint64(fc.FullChargedCapacity), 10), battery.UnitMilliWattHour)
		}
		if sd, ok := static[st.InstanceName]; ok {
			if sd.DesignedCapacity > 0 {
				set(battery.FieldDesignCapacity, strconv.FormatUint(uint64(sd.DesignedCapacity), 10), battery.UnitMilliWattHour)
			}
			set(battery.FieldManufacturer, sd.ManufactureName, battery.UnitNone)
			set(battery.FieldSerial, sd.SerialNumber, battery.UnitNone)
		}
		if cc, ok := cycles[st.InstanceName]; ok && cc.CycleCount > 0 {
			set(battery.FieldCycleCount, strconv.FormatUint(uint64(cc.CycleCount), 10), battery.UnitNone)
		}

		records = append(records, RawRecord{
			Source:  r.Name(),
			Battery: battery.Identity("bat" + strconv.Itoa(i)),
			Values:  values,
		})
	}

	return records, nil
}

func wmiState(st wmiBatteryStatus, fc wmiFullChargedCapacity) string {
	switch {
	case st.Charging:
		return "charging"
	case st.Discharging:
		return "discharging"
	case st.PowerOnline && fc.FullChargedCapacity > 0 && st.RemainingCapacity >= fc.FullChargedCapacity:
		return "full"
	case st.PowerOnline:
		return "not charging"
	default:
		return ""
	}
}

// wmiRate folds the separate charge/discharge rates into one signed mW
// value: positive while charging, negative while discharging.
func wmiRate(st wmiBatteryStatus) int64 {
	if st.Charging && st.ChargeRate > 0 {
		return int64(st.ChargeRate)
	}
	if st.Discharging && st.DischargeRate > 0 {
		return -int64(st.DischargeRate)
	}
	return 0
}
