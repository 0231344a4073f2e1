package probe

import (
	"testing"

	"github.com/battlens/battlens/pkg/battery"
)

func TestPmsetLinePattern(t *testing.T) {
	out := "Now drawing from 'Battery Power'\n" +
		" -InternalBattery-0 (id=4456547)\t95%; discharging; 4:33 remaining present: true\n"

	matches := pmsetLinePattern.FindAllStringSubmatch(out, -1)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0][2] != "95" {
		t.Errorf("percentage = %q, want 95", matches[0][2])
	}
	if got := matches[0][3]; got != "discharging" {
		t.Errorf("state = %q, want discharging", got)
	}
}

func TestPmsetCharging(t *testing.T) {
	out := "Now drawing from 'AC Power'\n" +
		" -InternalBattery-0 (id=4456547)\t67%; charging; 1:02 remaining present: true\n"

	matches := pmsetLinePattern.FindAllStringSubmatch(out, -1)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0][2] != "67" || matches[0][3] != "charging" {
		t.Errorf("got %q %q, want 67 charging", matches[0][2], matches[0][3])
	}
}

func TestPmsetChargedState(t *testing.T) {
	out := " -InternalBattery-0 (id=4456547)\t100%; charged; 0:00 remaining present: true\n"

	matches := pmsetLinePattern.FindAllStringSubmatch(out, -1)
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	// "charged" normalizes to Full downstream.
	if battery.ParseState(matches[0][3]) != battery.Full {
		t.Errorf("state %q should parse as Full", matches[0][3])
	}
}

func TestPmsetMultipleBatteries(t *testing.T) {
	out := " -InternalBattery-0 (id=1)\t95%; discharging; 4:33 remaining present: true\n" +
		" -InternalBattery-1 (id=2)\t80%; discharging; 3:10 remaining present: true\n"

	matches := pmsetLinePattern.FindAllStringSubmatch(out, -1)
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
}
