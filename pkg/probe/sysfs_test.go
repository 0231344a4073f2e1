package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/battlens/battlens/pkg/battery"
)

func writeSupply(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for file, content := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSysfsProbe(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"type": "Battery\n",
		"uevent": `POWER_SUPPLY_NAME=BAT0
POWER_SUPPLY_PRESENT=1
POWER_SUPPLY_STATUS=Discharging
POWER_SUPPLY_CAPACITY=76
POWER_SUPPLY_ENERGY_FULL_DESIGN=57000000
POWER_SUPPLY_ENERGY_FULL=51000000
POWER_SUPPLY_ENERGY_NOW=38760000
POWER_SUPPLY_POWER_NOW=8210000
POWER_SUPPLY_VOLTAGE_NOW=11400000
POWER_SUPPLY_CYCLE_COUNT=214
POWER_SUPPLY_TECHNOLOGY=Li-ion
POWER_SUPPLY_MANUFACTURER=SMP
POWER_SUPPLY_SERIAL_NUMBER=01234
POWER_SUPPLY_TEMP=305
`,
	})
	writeSupply(t, root, "AC", map[string]string{
		"type":   "Mains\n",
		"online": "0\n",
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Battery != battery.Identity("bat0") {
		t.Errorf("identity = %q, want bat0", rec.Battery)
	}

	wantValues := map[battery.Field]RawValue{
		battery.FieldPercentage:         {Text: "76", Unit: battery.UnitPercent},
		battery.FieldState:              {Text: "Discharging"},
		battery.FieldDesignCapacity:     {Text: "57000000", Unit: battery.UnitMicroWattHour},
		battery.FieldFullChargeCapacity: {Text: "51000000", Unit: battery.UnitMicroWattHour},
		battery.FieldCurrentCapacity:    {Text: "38760000", Unit: battery.UnitMicroWattHour},
		battery.FieldChargeRate:         {Text: "8210000", Unit: battery.UnitMicroWatt},
		battery.FieldVoltage:            {Text: "11400000", Unit: battery.UnitMicroVolt},
		battery.FieldCycleCount:         {Text: "214"},
		battery.FieldTechnology:         {Text: "Li-ion"},
		battery.FieldManufacturer:       {Text: "SMP"},
		battery.FieldSerial:             {Text: "01234"},
		battery.FieldTemperature:        {Text: "305", Unit: battery.UnitTenthCelsius},
	}
	for f, want := range wantValues {
		if got := rec.Values[f]; got != want {
			t.Errorf("%s = %+v, want %+v", f, got, want)
		}
	}
}

func TestSysfsChargeUnitsFallback(t *testing.T) {
	// Kernels that expose charge_* instead of energy_* report in µAh;
	// the raw unit must say so for the normalizer to convert.
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"type": "Battery\n",
		"uevent": `POWER_SUPPLY_PRESENT=1
POWER_SUPPLY_STATUS=Charging
POWER_SUPPLY_CHARGE_FULL_DESIGN=5000000
POWER_SUPPLY_CHARGE_FULL=4500000
POWER_SUPPLY_CHARGE_NOW=2250000
POWER_SUPPLY_CURRENT_NOW=1500000
POWER_SUPPLY_VOLTAGE_NOW=11400000
`,
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if got := rec.Values[battery.FieldFullChargeCapacity]; got.Unit != battery.UnitMicroAmpHour {
		t.Errorf("full charge capacity unit = %v, want µAh", got.Unit)
	}
	if got := rec.Values[battery.FieldChargeRate]; got.Unit != battery.UnitMicroAmp {
		t.Errorf("charge rate unit = %v, want µA", got.Unit)
	}
}

func TestSysfsFullAtHundredOnAC(t *testing.T) {
	// Some firmware says "Discharging" at 100% while on AC power.
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"type": "Battery\n",
		"uevent": `POWER_SUPPLY_PRESENT=1
POWER_SUPPLY_STATUS=Discharging
POWER_SUPPLY_CAPACITY=100
`,
	})
	writeSupply(t, root, "AC", map[string]string{
		"type":   "Mains\n",
		"online": "1\n",
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := records[0].Values[battery.FieldState].Text; got != "Full" {
		t.Errorf("state = %q, want corrected to Full", got)
	}
}

func TestSysfsNoBatteries(t *testing.T) {
	// A desktop machine: the class exists, only a Mains supply in it.
	root := t.TempDir()
	writeSupply(t, root, "AC", map[string]string{
		"type":   "Mains\n",
		"online": "1\n",
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("records = %+v, want nil", records)
	}
}

func TestSysfsAbsentBatterySkipped(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{
		"type": "Battery\n",
		"uevent": `POWER_SUPPLY_PRESENT=0
POWER_SUPPLY_CAPACITY=50
`,
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0 for an absent battery", len(records))
	}
}

func TestSysfsMissingRoot(t *testing.T) {
	r := &SysfsReader{Root: filepath.Join(t.TempDir(), "nope")}
	_, err := r.Probe(context.Background())
	if !os.IsNotExist(err) {
		t.Errorf("err = %v, want not-exist for classification", err)
	}
}

func TestSysfsPropertyFileFallback(t *testing.T) {
	// No uevent file at all: individual property files must be read.
	root := t.TempDir()
	writeSupply(t, root, "BAT1", map[string]string{
		"type":     "Battery\n",
		"present":  "1\n",
		"capacity": "42\n",
		"status":   "Charging\n",
	})

	r := &SysfsReader{Root: root}
	records, err := r.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	rec := records[0]
	if got := rec.Values[battery.FieldPercentage].Text; got != "42" {
		t.Errorf("percentage = %q, want 42", got)
	}
	if got := rec.Values[battery.FieldState].Text; got != "Charging" {
		t.Errorf("state = %q, want Charging", got)
	}
}
