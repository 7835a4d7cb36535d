package config

// SentryConfig defines settings for Sentry error monitoring. An empty DSN
// disables reporting.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// SetDefaults fills environment and release from the app section.
func (c *SentryConfig) SetDefaults(app AppConfig) {
	if c.Environment == "" {
		c.Environment = app.Environment
	}
	if c.Release == "" {
		c.Release = app.Name + "@" + app.Version
	}
}
