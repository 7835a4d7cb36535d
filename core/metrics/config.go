package metrics

import (
	"slices"

	"github.com/kilianp07/robofleet/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}

// Has reports whether a sink of the given type is configured.
func (c Config) Has(typ string) bool {
	return slices.ContainsFunc(c.Sinks, func(m factory.ModuleConfig) bool { return m.Type == typ })
}
