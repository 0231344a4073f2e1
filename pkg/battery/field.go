package battery

// Identity is a stable identifier for one physical battery. Readers
// enumerate batteries in a stable order and name them "bat0", "bat1", ...
// so records from different sources can be merged per device.
type Identity string

// Field names one datum a source can report. Raw records and reconciled
// snapshots are both keyed by Field.
type Field string

const (
	FieldPercentage         Field = "percentage"
	FieldState              Field = "state"
	FieldDesignCapacity     Field = "design_capacity"
	FieldFullChargeCapacity Field = "full_charge_capacity"
	FieldCurrentCapacity    Field = "current_capacity"
	FieldChargeRate         Field = "charge_rate"
	FieldCycleCount         Field = "cycle_count"
	FieldVoltage            Field = "voltage"
	FieldTemperature        Field = "temperature"
	FieldTechnology         Field = "technology"
	FieldManufacturer       Field = "manufacturer"
	FieldSerial             Field = "serial"
)

// SourceComputed is the provenance recorded on values that were derived
// from other fields instead of reported by a source directly.
const SourceComputed = "computed"

// Unit tags a raw value with the unit its source reports it in, so the
// normalizer can convert to canonical units (percent, mWh, mW, V, °C).
type Unit int

const (
	UnitNone Unit = iota
	UnitPercent

	// Energy. Canonical is mWh.
	UnitMilliWattHour
	UnitMicroWattHour

	// Charge. Converting to energy requires a voltage from the same
	// record; without one the field is dropped.
	UnitMilliAmpHour
	UnitMicroAmpHour

	// Power. Canonical is mW, signed (>0 charging, <0 discharging).
	UnitMilliWatt
	UnitMicroWatt

	// Current. Same voltage requirement as charge.
	UnitMilliAmp
	UnitMicroAmp

	// Voltage. Canonical is V.
	UnitVolt
	UnitMilliVolt
	UnitMicroVolt

	// Temperature. Canonical is °C.
	UnitCelsius
	UnitTenthCelsius
	UnitCentiCelsius
)
