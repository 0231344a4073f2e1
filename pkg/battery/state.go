package battery

import (
	"encoding/json"
	"strings"
)

// PowerState represents the charging state of a battery.
type PowerState int

const (
	// Unknown indicates the state could not be determined.
	Unknown PowerState = iota
	// Charging indicates the battery is charging.
	Charging
	// Discharging indicates the battery is discharging.
	Discharging
	// Full indicates the battery is full.
	Full
	// NotCharging indicates the battery is idle: on external power but
	// neither charging nor full.
	NotCharging
)

func (s PowerState) String() string {
	switch s {
	case Charging:
		return "Charging"
	case Discharging:
		return "Discharging"
	case Full:
		return "Full"
	case NotCharging:
		return "NotCharging"
	default:
		return "Unknown"
	}
}

// ParseState maps a source-specific charging-state string to a canonical
// PowerState. Unrecognized strings map to Unknown, never an error.
func ParseState(raw string) PowerState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "charging", "fast charging":
		return Charging
	case "discharging", "on battery":
		return Discharging
	case "full", "charged", "fully charged", "fully-charged":
		return Full
	case "not charging", "not-charging", "idle", "ac attached", "inhibited", "finishing charge":
		return NotCharging
	default:
		return Unknown
	}
}

func (s PowerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PowerState) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	switch str {
	case "NotCharging":
		*s = NotCharging
	default:
		*s = ParseState(str)
	}
	return nil
}
