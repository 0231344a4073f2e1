package battery

import (
	"encoding/json"
	"testing"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		raw  string
		want PowerState
	}{
		{"Charging", Charging},
		{"charging", Charging},
		{"fast charging", Charging},
		{"Discharging", Discharging},
		{"on battery", Discharging},
		{"Full", Full},
		{"charged", Full},
		{"fully charged", Full},
		{"Not charging", NotCharging},
		{"idle", NotCharging},
		{"ac attached", NotCharging},
		{"finishing charge", NotCharging},
		{"  charging  ", Charging},
		{"", Unknown},
		{"bogus", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseState(tt.raw); got != tt.want {
				t.Errorf("ParseState(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPowerStateJSONRoundTrip(t *testing.T) {
	for _, state := range []PowerState{Unknown, Charging, Discharging, Full, NotCharging} {
		b, err := json.Marshal(state)
		if err != nil {
			t.Fatalf("marshal %v: %v", state, err)
		}

		var got PowerState
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != state {
			t.Errorf("round trip %v -> %s -> %v", state, b, got)
		}
	}
}
