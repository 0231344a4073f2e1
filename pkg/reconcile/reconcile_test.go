package reconcile

import (
	"testing"
	"time"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/normalize"
)

func sample(source string, tier int, fields map[battery.Field]normalize.Value) normalize.Sample {
	return normalize.Sample{
		Source:  source,
		Tier:    tier,
		Battery: battery.Identity("bat0"),
		Fields:  fields,
	}
}

func TestDeviceHigherTierWins(t *testing.T) {
	samples := []normalize.Sample{
		sample("library", 40, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 80},
		}),
		sample("sysfs", 100, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 82},
		}),
	}

	snap := Device(samples, time.Now())

	if !snap.Percentage.Valid {
		t.Fatal("percentage invalid")
	}
	if snap.Percentage.Value != 82 {
		t.Errorf("percentage = %v, want 82 (from higher tier)", snap.Percentage.Value)
	}
	if snap.Percentage.Source != "sysfs" {
		t.Errorf("source = %q, want %q", snap.Percentage.Source, "sysfs")
	}
}

func TestDeviceFieldWiseFallback(t *testing.T) {
	// The high-tier source lacks cycle count; the low-tier source must
	// fill exactly that field and nothing else.
	samples := []normalize.Sample{
		sample("sysfs", 100, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 82},
		}),
		sample("library", 40, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 80},
			battery.FieldCycleCount: {Num: 415},
		}),
	}

	snap := Device(samples, time.Now())

	if snap.Percentage.Value != 82 || snap.Percentage.Source != "sysfs" {
		t.Errorf("percentage = %v from %q, want 82 from sysfs", snap.Percentage.Value, snap.Percentage.Source)
	}
	if !snap.CycleCount.Valid || snap.CycleCount.Value != 415 {
		t.Errorf("cycle count = %+v, want 415", snap.CycleCount)
	}
	if snap.CycleCount.Source != "library" {
		t.Errorf("cycle count source = %q, want %q", snap.CycleCount.Source, "library")
	}
}

func TestDeviceSameTierKeepsGivenOrder(t *testing.T) {
	samples := []normalize.Sample{
		sample("first", 60, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 50},
		}),
		sample("second", 60, map[battery.Field]normalize.Value{
			battery.FieldPercentage: {Num: 60},
		}),
	}

	snap := Device(samples, time.Now())

	if snap.Percentage.Source != "first" {
		t.Errorf("source = %q, want %q (registration order breaks ties)", snap.Percentage.Source, "first")
	}
}

func TestDeviceClampsCurrentAboveFull(t *testing.T) {
	samples := []normalize.Sample{
		sample("sysfs", 100, map[battery.Field]normalize.Value{
			battery.FieldCurrentCapacity:    {Num: 5200},
			battery.FieldFullChargeCapacity: {Num: 5000},
		}),
	}

	snap := Device(samples, time.Now())

	if snap.CurrentCapacity.Value != 5000 {
		t.Errorf("current capacity = %v, want clamped to 5000", snap.CurrentCapacity.Value)
	}
	if !snap.Adjusted {
		t.Error("snapshot should be flagged adjusted after clamping")
	}
}

func TestDeviceDerivesPercentage(t *testing.T) {
	samples := []normalize.Sample{
		sample("sysfs", 100, map[battery.Field]normalize.Value{
			battery.FieldCurrentCapacity:    {Num: 2500},
			battery.FieldFullChargeCapacity: {Num: 5000},
		}),
	}

	snap := Device(samples, time.Now())

	if !snap.Percentage.Valid {
		t.Fatal("percentage should be derived from capacities")
	}
	if snap.Percentage.Value != 50 {
		t.Errorf("percentage = %v, want 50", snap.Percentage.Value)
	}
	if snap.Percentage.Source != battery.SourceComputed {
		t.Errorf("source = %q, want %q", snap.Percentage.Source, battery.SourceComputed)
	}
}

func TestDeviceDerivedNeverOverridesReported(t *testing.T) {
	samples := []normalize.Sample{
		sample("sysfs", 100, map[battery.Field]normalize.Value{
			battery.FieldPercentage:         {Num: 47},
			battery.FieldCurrentCapacity:    {Num: 2500},
			battery.FieldFullChargeCapacity: {Num: 5000},
		}),
	}

	snap := Device(samples, time.Now())

	if snap.Percentage.Value != 47 || snap.Percentage.Source != "sysfs" {
		t.Errorf("percentage = %v from %q, reported value must win over derived", snap.Percentage.Value, snap.Percentage.Source)
	}
}

func TestDeviceEmpty(t *testing.T) {
	snap := Device(nil, time.Now())

	if snap.Present {
		t.Error("no samples should mean not present")
	}
	if snap.Percentage.Valid || snap.State.Valid {
		t.Error("no samples should leave every field invalid")
	}
}

func TestSystemSingleBatteryPassthrough(t *testing.T) {
	dev := battery.Snapshot{
		Battery:    "bat0",
		Present:    true,
		Percentage: battery.Float(73, "sysfs"),
		State:      battery.State(battery.Discharging, "sysfs"),
	}

	snap := System([]battery.Snapshot{dev}, nil, time.Now())

	if !snap.Present {
		t.Error("present should be true")
	}
	if snap.Percentage != dev.Percentage {
		t.Errorf("percentage = %+v, want passthrough %+v", snap.Percentage, dev.Percentage)
	}
	if snap.State != dev.State {
		t.Errorf("state = %+v, want passthrough %+v", snap.State, dev.State)
	}
}

func TestSystemWeightedPercentage(t *testing.T) {
	devices := []battery.Snapshot{
		{
			Battery:            "bat0",
			Percentage:         battery.Float(100, "sysfs"),
			FullChargeCapacity: battery.Float(20000, "sysfs"),
		},
		{
			Battery:            "bat1",
			Percentage:         battery.Float(40, "sysfs"),
			FullChargeCapacity: battery.Float(60000, "sysfs"),
		},
	}

	snap := System(devices, nil, time.Now())

	// (100*20000 + 40*60000) / 80000 = 55
	if !snap.Percentage.Valid || snap.Percentage.Value != 55 {
		t.Errorf("percentage = %+v, want 55", snap.Percentage)
	}
	if snap.Percentage.Source != battery.SourceComputed {
		t.Errorf("source = %q, want %q", snap.Percentage.Source, battery.SourceComputed)
	}
}

func TestSystemUnweightedWhenCapacityMissing(t *testing.T) {
	devices := []battery.Snapshot{
		{
			Battery:            "bat0",
			Percentage:         battery.Float(100, "sysfs"),
			FullChargeCapacity: battery.Float(20000, "sysfs"),
		},
		{
			Battery:    "bat1",
			Percentage: battery.Float(40, "sysfs"),
		},
	}

	snap := System(devices, nil, time.Now())

	if !snap.Percentage.Valid || snap.Percentage.Value != 70 {
		t.Errorf("percentage = %+v, want plain average 70", snap.Percentage)
	}
}

func TestSystemStatePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		states []battery.PowerState
		want   battery.PowerState
	}{
		{"charging beats discharging", []battery.PowerState{battery.Discharging, battery.Charging}, battery.Charging},
		{"discharging beats full", []battery.PowerState{battery.Full, battery.Discharging}, battery.Discharging},
		{"all full", []battery.PowerState{battery.Full, battery.Full}, battery.Full},
		{"mixed idle is unknown", []battery.PowerState{battery.Full, battery.NotCharging}, battery.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices := make([]battery.Snapshot, len(tt.states))
			for i, st := range tt.states {
				devices[i] = battery.Snapshot{State: battery.State(st, "sysfs")}
			}

			snap := System(devices, nil, time.Now())

			if !snap.State.Valid || snap.State.Value != tt.want {
				t.Errorf("state = %+v, want %v", snap.State, tt.want)
			}
		})
	}
}

func TestSystemEmpty(t *testing.T) {
	sources := []battery.SourceStatus{
		{Source: "sysfs", Tier: 100, OK: false, Failure: "unavailable"},
	}

	snap := System(nil, sources, time.Now())

	if snap.Present {
		t.Error("no batteries should mean not present")
	}
	if len(snap.Sources) != 1 {
		t.Errorf("sources = %d, want 1 (failures are still reported)", len(snap.Sources))
	}
}

func TestSystemAdjustedPropagates(t *testing.T) {
	devices := []battery.Snapshot{
		{Battery: "bat0"},
		{Battery: "bat1", Adjusted: true},
	}

	snap := System(devices, nil, time.Now())

	if !snap.Adjusted {
		t.Error("any adjusted battery should flag the system snapshot")
	}
}
