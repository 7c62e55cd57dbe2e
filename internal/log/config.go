package log

// Config controls logger construction.
type Config struct {
	// Name identifies the service in every log entry.
	Name string `conf:"name" yaml:"name" json:"name"`

	// Level is the minimum enabled level: debug, info, warn or error.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format selects the encoder: console or json.
	Format string `conf:"format" yaml:"format" json:"format"`

	// File enables rotated file output in addition to stderr.
	File FileConfig `conf:"file" yaml:"file" json:"file"`
}

// FileConfig configures lumberjack-rotated file output.
type FileConfig struct {
	Enabled    bool   `conf:"enabled" yaml:"enabled" json:"enabled"`
	Path       string `conf:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `conf:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `conf:"compress" yaml:"compress" json:"compress"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Name:   "neuraform",
		Level:  "info",
		Format: "console",
	}
}
