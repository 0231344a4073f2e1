package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/battlens/battlens/pkg/client"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/battlens.sock"
	configPath     = "/etc/battlens.json"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: battlens daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'battlens daemon', or use 'battlens status' which probes locally.")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or run the daemon with the '--always-allow-non-root-access' flag to grant permissions to your user")
	}
}

func main() {
	// Reduce the number of CPUs used by battlens.
	// battlens does not need to use much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battlens",
		Short: "battlens reports battery presence, charge, health, and power state",
		Long: `battlens reports battery presence, charge, health, and power state.

It probes every battery information source the platform offers, reconciles
their answers by trust, and reports a single consistent view with per-field
provenance.

Website: https://github.com/battlens/battlens
Report issues: https://github.com/battlens/battlens/issues`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "battlens daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewPercentageCommand(),
		NewStateCommand(),
		NewTimeRemainingCommand(),
		NewWearCommand(),
		NewRefreshCommand(),
		NewSourcesCommand(),
		NewRefreshIntervalCommand(),
	)

	return cmd
}
