package probe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/battlens/battlens/pkg/battery"
)

// PmsetReader scrapes `pmset -g batt` on macOS. It only yields charge
// percentage and state, but it answers even when the smart battery
// registry entry is unreadable, so it serves as the report-tier
// fallback behind ioreg.
type PmsetReader struct{}

func NewPmsetReader() *PmsetReader { return &PmsetReader{} }

func (r *PmsetReader) Name() string { return "pmset" }
func (r *PmsetReader) Tier() int    { return TierReport }

// Example line:
//
//	-InternalBattery-0 (id=4456547)	95%; discharging; 4:33 remaining present: true
var pmsetLinePattern = regexp.MustCompile(`InternalBattery-(\d+)[^\t]*\t(\d+)%;\s*([a-zA-Z ]+?);`)

func (r *PmsetReader) Probe(ctx context.Context) ([]RawRecord, error) {
	out, err := runCommand(ctx, "pmset", "-g", "batt")
	if err != nil {
		return nil, err
	}

	text := string(out)
	matches := pmsetLinePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		if strings.Contains(strings.ToLower(text), "no batteries") {
			return nil, nil
		}
		return nil, &Failure{Source: r.Name(), Reason: ReasonMalformed}
	}

	records := make([]RawRecord, 0, len(matches))
	for i, m := range matches {
		records = append(records, RawRecord{
			Source:  r.Name(),
			Battery: battery.Identity(fmt.Sprintf("bat%d", i)),
			Values: map[battery.Field]RawValue{
				battery.FieldPercentage: {Text: m[2], Unit: battery.UnitPercent},
				battery.FieldState:      {Text: strings.TrimSpace(m[3])},
			},
		})
	}

	return records, nil
}
