package probe

import (
	"context"
	"html"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/battlens/battlens/pkg/battery"
)

// PowercfgReader scrapes `powercfg /batteryreport` output on Windows.
// The report only carries static data (design capacity, full charge
// capacity, cycle count, manufacturer, chemistry, serial), so one
// successful scrape is cached for the process lifetime; generating the
// report is far too slow to run on every refresh.
type PowercfgReader struct {
	mu     sync.Mutex
	cached map[battery.Field]RawValue
}

func NewPowercfgReader() *PowercfgReader { return &PowercfgReader{} }

func (r *PowercfgReader) Name() string { return "powercfg" }
func (r *PowercfgReader) Tier() int    { return TierReport }

var reportPathPattern = regexp.MustCompile(`(?i)saved to\s+(?:file path\s+)?(.+)`)

func (r *PowercfgReader) Probe(ctx context.Context) ([]RawRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached == nil {
		values, err := r.scrape(ctx)
		if err != nil {
			return nil, err
		}
		r.cached = values
	}

	return []RawRecord{{
		Source:  r.Name(),
		Battery: battery.Identity("bat0"),
		Values:  r.cached,
	}}, nil
}

func (r *PowercfgReader) scrape(ctx context.Context) (map[battery.Field]RawValue, error) {
	out, err := runCommand(ctx, "powercfg", "/batteryreport")
	if err != nil {
		return nil, err
	}

	m := reportPathPattern.FindStringSubmatch(string(out))
	if m == nil {
		return nil, &Failure{Source: r.Name(), Reason: ReasonMalformed}
	}
	reportPath := strings.Trim(strings.TrimSpace(m[1]), `"`)

	report, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(reportPath); err != nil {
		logrus.Debugf("failed to remove battery report %s: %v", reportPath, err)
	}

	values := parseBatteryReport(string(report))
	if len(values) == 0 {
		return nil, &Failure{Source: r.Name(), Reason: ReasonMalformed}
	}
	return values, nil
}

// The report is an HTML table; each datum sits in the cell after its
// label. Capacities are reported in mWh.
var reportPatterns = []struct {
	field   battery.Field
	unit    battery.Unit
	numeric bool
	re      *regexp.Regexp
}{
	{battery.FieldDesignCapacity, battery.UnitMilliWattHour, true,
		regexp.MustCompile(`(?is)DESIGN CAPACITY</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
	{battery.FieldFullChargeCapacity, battery.UnitMilliWattHour, true,
		regexp.MustCompile(`(?is)FULL CHARGE CAPACITY</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
	{battery.FieldCycleCount, battery.UnitNone, true,
		regexp.MustCompile(`(?is)CYCLE COUNT</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
	{battery.FieldManufacturer, battery.UnitNone, false,
		regexp.MustCompile(`(?is)MANUFACTURER</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
	{battery.FieldTechnology, battery.UnitNone, false,
		regexp.MustCompile(`(?is)CHEMISTRY</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
	{battery.FieldSerial, battery.UnitNone, false,
		regexp.MustCompile(`(?is)SERIAL NUMBER</span>\s*</td>\s*<td[^>]*>(.*?)</td>`)},
}

var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	nonDigitPattern = regexp.MustCompile(`[^\d]`)
)

func parseBatteryReport(report string) map[battery.Field]RawValue {
	values := make(map[battery.Field]RawValue)

	for _, p := range reportPatterns {
		m := p.re.FindStringSubmatch(report)
		if m == nil {
			continue
		}
		text := normalizeReportText(m[1])
		if p.numeric {
			text = nonDigitPattern.ReplaceAllString(text, "")
		}
		if text == "" || text == "-" {
			continue
		}
		values[p.field] = RawValue{Text: text, Unit: p.unit}
	}

	// Windows maps chemistry to short codes; expand the common ones.
	if v, ok := values[battery.FieldTechnology]; ok {
		if name := chemistryName(v.Text); name != "" {
			values[battery.FieldTechnology] = RawValue{Text: name}
		}
	}

	return values
}

func normalizeReportText(cell string) string {
	text := htmlTagPattern.ReplaceAllString(cell, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

func chemistryName(code string) string {
	switch strings.ToLower(code) {
	case "lion", "liion", "li-i":
		return "Lithium-ion"
	case "lip", "lipo":
		return "Lithium-polymer"
	case "pbac":
		return "Lead-acid"
	case "nimh":
		return "Nickel-metal hydride"
	case "nicd":
		return "Nickel-cadmium"
	default:
		return ""
	}
}
