// Package reconcile merges the normalized per-source samples into one
// canonical snapshot per battery, and aggregates per-battery snapshots
// into the whole-system view.
//
// The merge is field-wise first-wins: sources are scanned in trust
// order and the first one supplying a validated value for a field
// provides it, with that source recorded as provenance. Derived values
// only ever fill gaps; they never override a directly reported value.
package reconcile

import (
	"sort"
	"time"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/normalize"
)

// Device merges all samples describing one battery into a Snapshot.
// Samples are arbitrated by tier descending; same-tier ties resolve to
// the order given, which the prober guarantees is registry order.
func Device(samples []normalize.Sample, capturedAt time.Time) battery.Snapshot {
	ordered := make([]normalize.Sample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier > ordered[j].Tier
	})

	snap := battery.Snapshot{
		CapturedAt: capturedAt,
		Present:    len(ordered) > 0,
	}
	if len(ordered) > 0 {
		snap.Battery = ordered[0].Battery
	}

	pickFloat := func(f battery.Field) battery.FloatField {
		for _, s := range ordered {
			if v, ok := s.Fields[f]; ok {
				return battery.Float(v.Num, s.Source)
			}
		}
		return battery.FloatField{}
	}
	pickString := func(f battery.Field) battery.StringField {
		for _, s := range ordered {
			if v, ok := s.Fields[f]; ok {
				return battery.String(v.Str, s.Source)
			}
		}
		return battery.StringField{}
	}

	snap.Percentage = pickFloat(battery.FieldPercentage)
	snap.DesignCapacity = pickFloat(battery.FieldDesignCapacity)
	snap.FullChargeCapacity = pickFloat(battery.FieldFullChargeCapacity)
	snap.CurrentCapacity = pickFloat(battery.FieldCurrentCapacity)
	snap.ChargeRate = pickFloat(battery.FieldChargeRate)
	snap.Voltage = pickFloat(battery.FieldVoltage)
	snap.Temperature = pickFloat(battery.FieldTemperature)
	snap.Technology = pickString(battery.FieldTechnology)
	snap.Manufacturer = pickString(battery.FieldManufacturer)
	snap.Serial = pickString(battery.FieldSerial)

	for _, s := range ordered {
		if v, ok := s.Fields[battery.FieldState]; ok {
			snap.State = battery.State(v.State, s.Source)
			break
		}
	}
	for _, s := range ordered {
		if v, ok := s.Fields[battery.FieldCycleCount]; ok {
			snap.CycleCount = battery.Int(int64(v.Num), s.Source)
			break
		}
	}

	plausibility(&snap)

	return snap
}

// plausibility runs the cross-field pass: contradictory values are
// corrected (and the snapshot flagged adjusted), and gaps that other
// fields determine are filled with "computed" provenance.
func plausibility(snap *battery.Snapshot) {
	cur, full := &snap.CurrentCapacity, &snap.FullChargeCapacity

	if cur.Valid && full.Valid && cur.Value > full.Value {
		cur.Value = full.Value
		snap.Adjusted = true
	}

	if !snap.Percentage.Valid && cur.Valid && full.Valid && full.Value > 0 {
		snap.Percentage = battery.Float(cur.Value/full.Value*100, battery.SourceComputed)
	}
}

// System builds the whole-machine snapshot from per-battery snapshots
// and the per-source probe outcomes.
//
// Aggregation policy: system percentage is the capacity-weighted
// average (weight = full charge capacity) when every battery reports
// one, else the plain average. System state precedence: Charging if any
// battery charges, else Discharging if any discharges, else Full when
// all are full, else Unknown.
func System(devices []battery.Snapshot, sources []battery.SourceStatus, capturedAt time.Time) *battery.SystemSnapshot {
	snap := &battery.SystemSnapshot{
		CapturedAt: capturedAt,
		Present:    len(devices) > 0,
		Batteries:  devices,
		Sources:    sources,
	}

	for _, d := range devices {
		if d.Adjusted {
			snap.Adjusted = true
		}
	}

	if len(devices) == 1 {
		snap.Percentage = devices[0].Percentage
		snap.State = devices[0].State
		return snap
	}

	snap.Percentage = aggregatePercentage(devices)
	snap.State = aggregateState(devices)

	return snap
}

func aggregatePercentage(devices []battery.Snapshot) battery.FloatField {
	weighted := true
	for _, d := range devices {
		if d.Percentage.Valid && !d.FullChargeCapacity.Valid {
			weighted = false
			break
		}
	}

	var sum, weightSum float64
	for _, d := range devices {
		if !d.Percentage.Valid {
			continue
		}
		w := 1.0
		if weighted {
			w = d.FullChargeCapacity.Value
		}
		sum += d.Percentage.Value * w
		weightSum += w
	}
	if weightSum <= 0 {
		return battery.FloatField{}
	}
	return battery.Float(sum/weightSum, battery.SourceComputed)
}

func aggregateState(devices []battery.Snapshot) battery.StateField {
	anyCharging, anyDischarging := false, false
	allFull := true
	anyState := false

	for _, d := range devices {
		if !d.State.Valid {
			allFull = false
			continue
		}
		anyState = true
		switch d.State.Value {
		case battery.Charging:
			anyCharging = true
			allFull = false
		case battery.Discharging:
			anyDischarging = true
			allFull = false
		case battery.Full:
		default:
			allFull = false
		}
	}

	if !anyState {
		return battery.StateField{}
	}

	switch {
	case anyCharging:
		return battery.State(battery.Charging, battery.SourceComputed)
	case anyDischarging:
		return battery.State(battery.Discharging, battery.SourceComputed)
	case allFull:
		return battery.State(battery.Full, battery.SourceComputed)
	default:
		return battery.State(battery.Unknown, battery.SourceComputed)
	}
}
