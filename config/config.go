package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/infra/journal"
	"github.com/kilianp07/robofleet/infra/mqtt"
	"github.com/kilianp07/robofleet/infra/remote"
)

// EnvPrefix marks environment variables that override the config file.
// Nested keys are separated by a double underscore: RF_API__TIMEOUT_MS.
const EnvPrefix = "RF_"

type Config struct {
	App       AppConfig       `json:"app"`
	API       remote.Config   `json:"api"`
	Server    ServerConfig    `json:"server"`
	Fleet     FleetConfig     `json:"fleet"`
	Dashboard DashboardConfig `json:"dashboard"`
	Log       LogConfig       `json:"log"`
	Journal   journal.Config  `json:"journal"`
	Metrics   metrics.Config  `json:"metrics"`
	MQTT      mqtt.Config     `json:"mqtt"`
	Sentry    SentryConfig    `json:"sentry"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// Load reads the YAML or JSON file at path, applies RF_ environment
// overrides, fills defaults and validates the result. An empty path loads
// defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Default returns a config holding only defaults.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.App.SetDefaults()
	c.API.SetDefaults()
	c.Server.SetDefaults()
	c.Fleet.SetDefaults()
	c.Dashboard.SetDefaults()
	c.Log.SetDefaults()
	c.Journal.SetDefaults()
	c.MQTT.SetDefaults()
	c.Sentry.SetDefaults(c.App)
	c.Telemetry.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	return errors.Join(
		c.API.Validate(),
		c.Server.Validate(),
		c.Fleet.Validate(),
		c.Dashboard.Validate(),
		c.Log.Validate(),
		c.Journal.Validate(),
		c.MQTT.Validate(),
		c.Telemetry.Validate(),
	)
}
