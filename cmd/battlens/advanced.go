package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		Short:   "Show every probe source and its last outcome",
		GroupID: gAdvanced,
		Long: `Show every probe source in trust order, whether its last probe succeeded, and the failure reason if not.

Useful to see where the reported values are coming from, or why a field is missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := newAPIClient().GetSources()
			if err != nil {
				return fmt.Errorf("failed to get sources: %w", err)
			}

			for _, src := range sources {
				if src.OK {
					cmd.Printf("%s %s (tier %d)\n", bool2Text(true), src.Source, src.Tier)
				} else {
					cmd.Printf("%s %s (tier %d): %s\n", bool2Text(false), src.Source, src.Tier, src.Failure)
				}
			}

			return nil
		},
	}
}

func NewRefreshIntervalCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh-interval [seconds]",
		Short:   "Set how long a cached snapshot stays fresh",
		GroupID: gAdvanced,
		Long: `Set how long a cached snapshot stays fresh.

Queries within this interval reuse the last snapshot instead of probing the hardware again. Shorter intervals give fresher data at the cost of more probing.`,
		RunE: func(_ *cobra.Command, args []string) error {
			seconds, err := parseIntArg(args, "refresh interval")
			if err != nil {
				return err
			}

			ret, err := newAPIClient().SetRefreshInterval(time.Duration(seconds) * time.Second)
			if err != nil {
				return fmt.Errorf("failed to set refresh interval: %w", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			logrus.Infof("successfully set refresh interval to %ds", seconds)

			return nil
		},
	}
}

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}
