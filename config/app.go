package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/kilianp07/robofleet/core/fleet"
)

// AppConfig identifies the running process.
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

func (c *AppConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "robofleet"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Environment == "" {
		c.Environment = os.Getenv("APP_ENV")
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

// ServerConfig configures the REST server started by "serve".
type ServerConfig struct {
	Address          string   `json:"address"`
	RequestTimeoutMS int      `json:"request_timeout_ms"`
	AllowOrigins     []string `json:"allow_origins"`
	ShutdownMS       int      `json:"shutdown_ms"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RequestTimeoutMS == 0 {
		c.RequestTimeoutMS = 10000
	}
	if c.ShutdownMS <= 0 {
		c.ShutdownMS = 5000
	}
}

func (c ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("server.address: %w", err)
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("server.request_timeout_ms must be >= 0")
	}
	return nil
}

func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownMS) * time.Millisecond
}

// FleetConfig selects the initial fleet and how new ids are built.
type FleetConfig struct {
	// SeedSample loads the three sample robots when no seed file is set.
	SeedSample *bool  `json:"seed_sample"`
	SeedFile   string `json:"seed_file"`
	// IDStrategy is "serial" (R{n}D{0..99}) or "uuid".
	IDStrategy string `json:"id_strategy"`
	// Seed makes id and robot generation reproducible. Zero uses the clock.
	Seed       int64 `json:"seed"`
	IDAttempts int   `json:"id_attempts"`
}

func (c *FleetConfig) SetDefaults() {
	if c.SeedSample == nil {
		v := true
		c.SeedSample = &v
	}
	if c.IDStrategy == "" {
		c.IDStrategy = "serial"
	}
	if c.IDAttempts <= 0 {
		c.IDAttempts = fleet.DefaultIDAttempts
	}
}

func (c FleetConfig) Validate() error {
	if _, err := fleet.NewIDGenerator(c.IDStrategy, c.Seed); err != nil {
		return fmt.Errorf("fleet.id_strategy: %w", err)
	}
	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			return fmt.Errorf("fleet.seed_file: %w", err)
		}
	}
	return nil
}

// Sample reports whether the sample fleet should be loaded.
func (c FleetConfig) Sample() bool { return c.SeedFile == "" && c.SeedSample != nil && *c.SeedSample }

// DashboardConfig configures the terminal dashboard.
type DashboardConfig struct {
	// RefreshMS is how often a remote-backed dashboard polls the server.
	RefreshMS       int    `json:"refresh_ms"`
	ActionTimeoutMS int    `json:"action_timeout_ms"`
	LogFile         string `json:"log_file"`
}

func (c *DashboardConfig) SetDefaults() {
	if c.RefreshMS <= 0 {
		c.RefreshMS = 2000
	}
	if c.ActionTimeoutMS <= 0 {
		c.ActionTimeoutMS = 5000
	}
	if c.LogFile == "" {
		c.LogFile = "robofleet-dash.log"
	}
}

func (c DashboardConfig) Validate() error {
	if c.RefreshMS < 100 {
		return fmt.Errorf("dashboard.refresh_ms must be >= 100")
	}
	return nil
}

func (c DashboardConfig) Refresh() time.Duration {
	return time.Duration(c.RefreshMS) * time.Millisecond
}

func (c DashboardConfig) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutMS) * time.Millisecond
}

// TelemetryConfig sizes the mutation event pipeline.
type TelemetryConfig struct {
	// Buffer is the per-consumer channel size of the event bus.
	Buffer         int `json:"buffer"`
	CloseTimeoutMS int `json:"close_timeout_ms"`
}

func (c *TelemetryConfig) SetDefaults() {
	if c.Buffer <= 0 {
		c.Buffer = 64
	}
	if c.CloseTimeoutMS <= 0 {
		c.CloseTimeoutMS = 3000
	}
}

func (c TelemetryConfig) Validate() error {
	if c.Buffer > 1<<16 {
		return fmt.Errorf("telemetry.buffer too large: %d", c.Buffer)
	}
	return nil
}

func (c TelemetryConfig) CloseTimeout() time.Duration {
	return time.Duration(c.CloseTimeoutMS) * time.Millisecond
}
