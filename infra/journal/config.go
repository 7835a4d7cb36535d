package journal

import "fmt"

// Backend names accepted by New.
const (
	BackendNone     = "none"
	BackendJSONL    = "jsonl"
	BackendRotating = "rotating"
	BackendSQLite   = "sqlite"
)

// Config defines settings for mutation journal storage and rotation.
type Config struct {
	// Backend selects the store type: "none", "jsonl", "rotating" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the journal.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "robofleet-journal.db"
		default:
			c.Path = "robofleet-journal.jsonl"
		}
	}
	if c.Backend == BackendRotating && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
	default:
		return fmt.Errorf("unknown journal backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	return nil
}

// New opens the store selected by cfg. The "none" backend yields a nil Store.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendNone, "":
		return nil, nil
	case BackendJSONL:
		return NewJSONLStore(cfg.Path)
	case BackendRotating:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
