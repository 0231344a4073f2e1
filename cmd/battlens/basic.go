package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battlens/battlens/pkg/client"
	"github.com/battlens/battlens/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewPercentageCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "percentage",
		Short:   "Print the battery charge percentage",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pct, err := newAPIClient().GetPercentage()
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("no source reported a charge percentage")
				}
				return fmt.Errorf("failed to get percentage: %w", err)
			}
			cmd.Printf("%.0f\n", pct)
			return nil
		},
	}
}

func NewStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "state",
		Short:   "Print the battery power state",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := newAPIClient().GetState()
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("no source reported a power state")
				}
				return fmt.Errorf("failed to get power state: %w", err)
			}
			cmd.Println(state.String())
			return nil
		},
	}
}

func NewTimeRemainingCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "time-remaining",
		Short:   "Print the estimated time until empty or full",
		GroupID: gBasic,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newAPIClient().GetTimeRemaining()
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("not enough data to estimate time remaining")
				}
				return fmt.Errorf("failed to get time remaining: %w", err)
			}
			cmd.Println(d.Round(time.Minute).String())
			return nil
		},
	}
}

func NewWearCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "wear",
		Short:   "Print the battery wear percentage",
		GroupID: gBasic,
		Long: `Print the battery wear percentage.

Wear is how much full charge capacity the battery has lost relative to its design capacity. A brand new battery has 0% wear.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wear, err := newAPIClient().GetWear()
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("not enough data to compute wear")
				}
				return fmt.Errorf("failed to get wear: %w", err)
			}
			cmd.Printf("%.1f\n", wear)
			return nil
		},
	}
}

func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh",
		Short:   "Force the daemon to probe all sources now",
		GroupID: gBasic,
		RunE: func(_ *cobra.Command, _ []string) error {
			snap, err := newAPIClient().Refresh()
			if err != nil {
				return fmt.Errorf("failed to refresh: %w", err)
			}

			logrus.WithFields(logrus.Fields{
				"present":   snap.Present,
				"batteries": len(snap.Batteries),
			}).Info("snapshot refreshed")

			return nil
		},
	}
}
