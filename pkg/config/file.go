package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battlens/battlens/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		RefreshIntervalSeconds: ptr.To(5),
		ProbeTimeoutSeconds:    ptr.To(10),
		// nil means the built-in trust order.
		PreferredSources: nil,
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk representation. Pointer fields
// distinguish "absent, use the default" from an explicit zero.
type RawFileConfig struct {
	RefreshIntervalSeconds *int      `json:"refreshIntervalSeconds,omitempty"`
	ProbeTimeoutSeconds    *int      `json:"probeTimeoutSeconds,omitempty"`
	PreferredSources       *[]string `json:"preferredSources,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) *RawFileConfig {
	sources := c.PreferredSources()
	raw := &RawFileConfig{
		RefreshIntervalSeconds: ptr.To(int(c.RefreshInterval() / time.Second)),
		ProbeTimeoutSeconds:    ptr.To(int(c.ProbeTimeout() / time.Second)),
	}
	if len(sources) > 0 {
		raw.PreferredSources = ptr.To(sources)
	}
	return raw
}

func (f *File) RefreshInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.RefreshIntervalSeconds == nil {
		return time.Duration(*defaultFileConfig.RefreshIntervalSeconds) * time.Second
	}
	return time.Duration(*f.c.RefreshIntervalSeconds) * time.Second
}

func (f *File) ProbeTimeout() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.ProbeTimeoutSeconds == nil {
		return time.Duration(*defaultFileConfig.ProbeTimeoutSeconds) * time.Second
	}
	return time.Duration(*f.c.ProbeTimeoutSeconds) * time.Second
}

func (f *File) PreferredSources() []string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.PreferredSources == nil {
		return nil
	}
	return *f.c.PreferredSources
}

func (f *File) SetRefreshInterval(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.RefreshIntervalSeconds = ptr.To(int(d / time.Second))
}

func (f *File) SetProbeTimeout(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.ProbeTimeoutSeconds = ptr.To(int(d / time.Second))
}

func (f *File) SetPreferredSources(sources []string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(sources) == 0 {
		f.c.PreferredSources = nil
		return
	}
	f.c.PreferredSources = ptr.To(sources)
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"refreshInterval":  f.RefreshInterval(),
		"probeTimeout":     f.ProbeTimeout(),
		"preferredSources": f.PreferredSources(),
	}
}
