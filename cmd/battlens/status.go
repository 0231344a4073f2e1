package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/client"
	"github.com/battlens/battlens/pkg/config"
	"github.com/battlens/battlens/pkg/probe"
	"github.com/battlens/battlens/pkg/session"
)

func newAPIClient() *client.Client {
	return client.NewClient(unixSocketPath)
}

// fetchSnapshot asks the daemon for the current snapshot. If no daemon
// is running it probes locally instead, so status always works.
func fetchSnapshot(ctx context.Context) (*battery.SystemSnapshot, error) {
	snap, err := newAPIClient().GetSnapshot()
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, client.ErrDaemonNotRunning) {
		return nil, err
	}

	var timeout time.Duration
	var preferred []string
	if conf, err := config.NewFile(configPath); err == nil {
		timeout = conf.ProbeTimeout()
		preferred = conf.PreferredSources()
	}

	registry := probe.DefaultRegistry(timeout, preferred)
	sess := session.New(registry, 0)
	return sess.Refresh(ctx), nil
}

func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current battery status",
		Long:    `Get the reconciled battery snapshot: charge, health, power state, and which source supplied each value.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := fetchSnapshot(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal snapshot: %w", err)
				}
				cmd.Println(string(b))
				return nil
			}

			renderSnapshot(cmd, snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")

	return cmd
}

func renderSnapshot(cmd *cobra.Command, snap *battery.SystemSnapshot) {
	if !snap.Present {
		cmd.Println("No battery detected.")
		renderSources(cmd, snap)
		return
	}

	cmd.Println(bold("Battery status:"))

	if snap.Percentage.Valid {
		cmd.Printf("  Charge: %s%s\n", bold("%.0f%%", snap.Percentage.Value), provenance(snap.Percentage.Source))
	}
	if snap.State.Valid {
		cmd.Printf("  State: %s%s\n", stateText(snap.State.Value), provenance(snap.State.Source))
	}
	if d, err := session.TimeRemaining(snap); err == nil && d > 0 {
		cmd.Printf("  Time remaining: %s\n", bold("%s", d.Round(time.Minute)))
	}
	if snap.Adjusted {
		cmd.Printf("  Note: some values were adjusted for consistency\n")
	}

	for _, dev := range snap.Batteries {
		cmd.Println()
		cmd.Println(bold("Battery %s:", dev.Battery))

		if dev.CurrentCapacity.Valid && dev.FullChargeCapacity.Valid {
			cmd.Printf("  Capacity: %s of %s\n",
				bold("%.0f mWh", dev.CurrentCapacity.Value),
				bold("%.0f mWh", dev.FullChargeCapacity.Value))
		}
		if dev.DesignCapacity.Valid {
			cmd.Printf("  Design capacity: %s\n", bold("%.0f mWh", dev.DesignCapacity.Value))
		}
		if dev.ChargeRate.Valid {
			cmd.Printf("  Charge rate: %s\n", rateText(dev.ChargeRate.Value))
		}
		if dev.Voltage.Valid {
			cmd.Printf("  Voltage: %s\n", bold("%.2f V", dev.Voltage.Value))
		}
		if dev.Temperature.Valid {
			cmd.Printf("  Temperature: %s\n", bold("%.1f °C", dev.Temperature.Value))
		}
		if dev.CycleCount.Valid {
			cmd.Printf("  Cycle count: %s\n", bold("%d", dev.CycleCount.Value))
		}
		if dev.Technology.Valid {
			cmd.Printf("  Technology: %s\n", dev.Technology.Value)
		}
		if dev.Manufacturer.Valid {
			cmd.Printf("  Manufacturer: %s\n", dev.Manufacturer.Value)
		}
		if dev.Serial.Valid {
			cmd.Printf("  Serial: %s\n", dev.Serial.Value)
		}
	}

	if wear, err := session.WearPercentage(snap); err == nil {
		cmd.Println()
		cmd.Printf("%s %s\n", bold("Wear:"), bold("%.1f%%", wear))
	}

	renderSources(cmd, snap)
}

func renderSources(cmd *cobra.Command, snap *battery.SystemSnapshot) {
	if len(snap.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println(bold("Sources:"))
	for _, src := range snap.Sources {
		if src.OK {
			cmd.Printf("  %s %s\n", bool2Text(true), src.Source)
		} else {
			cmd.Printf("  %s %s (%s)\n", bool2Text(false), src.Source, src.Failure)
		}
	}
}

func stateText(s battery.PowerState) string {
	switch s {
	case battery.Charging:
		return color.New(color.Bold, color.FgGreen).Sprint("charging")
	case battery.Discharging:
		return color.New(color.Bold, color.FgRed).Sprint("discharging")
	default:
		return bold("%s", s)
	}
}

func rateText(mw float64) string {
	watts := mw / 1e3
	switch {
	case watts > 0:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
	case watts < 0:
		return color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", watts)
	default:
		return bold("%+.1f W", watts)
	}
}

// provenance annotates a value with the source that supplied it.
func provenance(source string) string {
	if source == "" {
		return ""
	}
	return color.New(color.Faint).Sprintf(" (from %s)", source)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
