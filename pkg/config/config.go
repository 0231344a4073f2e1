package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Config interface {
	// RefreshInterval is how long a cached snapshot stays fresh before
	// the next query triggers a new probe cycle.
	RefreshInterval() time.Duration
	// ProbeTimeout bounds how long a single source probe may take.
	ProbeTimeout() time.Duration
	// PreferredSources lists source names to consult before the rest,
	// overriding the built-in trust order. Empty means the built-in
	// order.
	PreferredSources() []string

	SetRefreshInterval(time.Duration)
	SetProbeTimeout(time.Duration)
	SetPreferredSources([]string)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	// LogrusFields reports the configuration as structured log fields.
	LogrusFields() logrus.Fields
}
