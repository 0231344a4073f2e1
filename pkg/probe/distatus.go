package probe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	dbattery "github.com/distatus/battery"

	"github.com/battlens/battlens/pkg/battery"
)

// DistatusReader wraps the distatus/battery library. It works on every
// platform, so it is registered everywhere as the lowest-trust fallback
// for when the native sources fail or leave gaps. Capacities arrive in
// mWh, rates in mW (magnitude only; the normalizer applies the sign
// from the state), voltages in V.
type DistatusReader struct{}

func NewDistatusReader() *DistatusReader { return &DistatusReader{} }

func (r *DistatusReader) Name() string { return "distatus" }
func (r *DistatusReader) Tier() int    { return TierLibrary }

func (r *DistatusReader) Probe(_ context.Context) ([]RawRecord, error) {
	batteries, err := dbattery.GetAll()
	if err != nil {
		var fatal dbattery.ErrFatal
		if errors.As(err, &fatal) {
			return nil, &Failure{Source: r.Name(), Reason: ReasonUnavailable, Err: err}
		}
		// Partial errors: some batteries resolved, some did not. Keep
		// what we got.
		var partial dbattery.Errors
		if !errors.As(err, &partial) {
			return nil, &Failure{Source: r.Name(), Reason: ReasonMalformed, Err: err}
		}
	}

	records := make([]RawRecord, 0, len(batteries))
	for i, b := range batteries {
		if b == nil {
			continue
		}

		values := make(map[battery.Field]RawValue)
		set := func(f battery.Field, v float64, unit battery.Unit) {
			if v > 0 {
				values[f] = RawValue{Text: strconv.FormatFloat(v, 'f', -1, 64), Unit: unit}
			}
		}

		values[battery.FieldState] = RawValue{Text: b.State.String()}
		set(battery.FieldCurrentCapacity, b.Current, battery.UnitMilliWattHour)
		set(battery.FieldFullChargeCapacity, b.Full, battery.UnitMilliWattHour)
		set(battery.FieldDesignCapacity, b.Design, battery.UnitMilliWattHour)
		set(battery.FieldChargeRate, b.ChargeRate, battery.UnitMilliWatt)
		set(battery.FieldVoltage, b.Voltage, battery.UnitVolt)

		records = append(records, RawRecord{
			Source:  r.Name(),
			Battery: battery.Identity(fmt.Sprintf("bat%d", i)),
			Values:  values,
		})
	}

	return records, nil
}
