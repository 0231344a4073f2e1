package battery

import "time"

// FloatField is a numeric snapshot value with provenance. Valid is false
// when no source supplied a usable value; Value is meaningless then.
// Missing data is always an explicit invalid field, never a zero.
type FloatField struct {
	Value  float64 `json:"value,omitempty"`
	Source string  `json:"source,omitempty"`
	Valid  bool    `json:"valid"`
}

// IntField is an integer snapshot value with provenance.
type IntField struct {
	Value  int64  `json:"value,omitempty"`
	Source string `json:"source,omitempty"`
	Valid  bool   `json:"valid"`
}

// StringField is a string snapshot value with provenance.
type StringField struct {
	Value  string `json:"value,omitempty"`
	Source string `json:"source,omitempty"`
	Valid  bool   `json:"valid"`
}

// StateField is a PowerState snapshot value with provenance.
type StateField struct {
	Value  PowerState `json:"value"`
	Source string     `json:"source,omitempty"`
	Valid  bool       `json:"valid"`
}

// Float is a convenience constructor for a valid FloatField.
func Float(v float64, source string) FloatField {
	return FloatField{Value: v, Source: source, Valid: true}
}

// Int is a convenience constructor for a valid IntField.
func Int(v int64, source string) IntField {
	return IntField{Value: v, Source: source, Valid: true}
}

// String is a convenience constructor for a valid StringField.
func String(v, source string) StringField {
	return StringField{Value: v, Source: source, Valid: true}
}

// State is a convenience constructor for a valid StateField.
func State(v PowerState, source string) StateField {
	return StateField{Value: v, Source: source, Valid: true}
}

// Snapshot is the reconciled view of one battery. It is immutable once
// produced; a refresh builds a new Snapshot instead of mutating the old
// one. Units: capacities in mWh, charge rate in mW (signed), voltage in
// V, temperature in °C.
type Snapshot struct {
	Battery    Identity  `json:"battery"`
	CapturedAt time.Time `json:"captured_at"`
	Present    bool      `json:"present"`
	// Adjusted is set when the plausibility pass had to correct a
	// reported value (e.g. current capacity above full capacity).
	Adjusted bool `json:"adjusted,omitempty"`

	Percentage         FloatField  `json:"percentage"`
	State              StateField  `json:"state"`
	DesignCapacity     FloatField  `json:"design_capacity"`
	FullChargeCapacity FloatField  `json:"full_charge_capacity"`
	CurrentCapacity    FloatField  `json:"current_capacity"`
	ChargeRate         FloatField  `json:"charge_rate"`
	CycleCount         IntField    `json:"cycle_count"`
	Voltage            FloatField  `json:"voltage"`
	Temperature        FloatField  `json:"temperature"`
	Technology         StringField `json:"technology"`
	Manufacturer       StringField `json:"manufacturer"`
	Serial             StringField `json:"serial"`
}

// SourceStatus records how one probe went during a collection cycle.
// Failures never escalate past the prober; they are kept here as
// provenance metadata only.
type SourceStatus struct {
	Source  string `json:"source"`
	Tier    int    `json:"tier"`
	OK      bool   `json:"ok"`
	Failure string `json:"failure,omitempty"`
}

// SystemSnapshot is the whole-machine view: per-battery snapshots plus
// aggregated percentage and state, and the per-source probe outcomes.
type SystemSnapshot struct {
	CapturedAt time.Time `json:"captured_at"`
	Present    bool      `json:"present"`
	Adjusted   bool      `json:"adjusted,omitempty"`

	Percentage FloatField `json:"percentage"`
	State      StateField `json:"state"`

	Batteries []Snapshot     `json:"batteries"`
	Sources   []SourceStatus `json:"sources"`
}
