package config

// LoggingConfig configures diagnostic logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`  // Master toggle - false = no logging
	Level      string          `yaml:"level"`       // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"` // JSON lines instead of console text
	Categories map[string]bool `yaml:"categories"`  // Per-category toggles
}
