package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	defaultLogLevel    = LogLevelInfo
	defaultHTTPTimeout = Duration(30 * time.Second)
)

// Duration parses yaml values like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(v)

	return nil
}

// ManifestConfig declares one named download manifest.
type ManifestConfig struct {
	Name       string `yaml:"name"`
	Path       string `yaml:"path"`   // file holding the manifest text
	Inline     string `yaml:"inline"` // manifest text embedded in the config
	Subdir     string `yaml:"subdir"` // destination subdirectory under dest_dir
	Executable bool   `yaml:"executable"`
	RequireAll bool   `yaml:"require_all"` // fail when a group has no variant for this platform
}

type Config struct {
	LogLevel    string           `yaml:"log_level"`
	DestDir     string           `yaml:"dest_dir"`
	HTTPTimeout Duration         `yaml:"http_timeout"`
	Manifests   []ManifestConfig `yaml:"manifests"`
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg := &Config{
		LogLevel:    defaultLogLevel,
		HTTPTimeout: defaultHTTPTimeout,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	if cfg.DestDir == "" {
		return nil, fmt.Errorf("config: dest_dir is required")
	}
	cfg.DestDir = os.ExpandEnv(cfg.DestDir)

	if len(cfg.Manifests) < 1 {
		return nil, fmt.Errorf("config: no manifests declared")
	}

	for i := range cfg.Manifests {
		m := &cfg.Manifests[i]
		if m.Name == "" {
			return nil, fmt.Errorf("config: manifests[%d]: name is required", i)
		}
		if (m.Path == "") == (m.Inline == "") {
			return nil, fmt.Errorf("config: manifest %s: exactly one of path or inline is required", m.Name)
		}
		m.Path = os.ExpandEnv(m.Path)
	}

	return cfg, nil
}
