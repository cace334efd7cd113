package types

import "errors"

// Config holds the settings shared by the CLI and the class index store.
type Config struct {
	DataDir  string `json:"data_dir" yaml:"data_dir"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	Output   string `json:"output" yaml:"output"`
}

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Log levels accepted in configuration.
const (
	LogLevelDebug    = "debug"
	LogLevelInfo     = "info"
	LogLevelWarn     = "warn"
	LogLevelError    = "error"
	LogLevelDisabled = "disabled"
)

// Config validation errors.
var (
	ErrLogLevelUnknown = errors.New("unknown log level")
	ErrOutputUnknown   = errors.New("unknown output format")
)

var knownLogLevels = map[string]bool{
	LogLevelDebug:    true,
	LogLevelInfo:     true,
	LogLevelWarn:     true,
	LogLevelError:    true,
	LogLevelDisabled: true,
}

var knownOutputs = map[string]bool{
	OutputText: true,
	OutputJSON: true,
}

// Validate checks that the Config is well-formed. Empty LogLevel and Output
// are accepted and mean the defaults (warn, text).
func (c Config) Validate() error {
	if c.LogLevel != "" && !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	if c.Output != "" && !knownOutputs[c.Output] {
		return ErrOutputUnknown
	}
	return nil
}

// EffectiveLogLevel returns LogLevel, defaulting to warn.
func (c Config) EffectiveLogLevel() string {
	if c.LogLevel == "" {
		return LogLevelWarn
	}
	return c.LogLevel
}

// EffectiveOutput returns Output, defaulting to text.
func (c Config) EffectiveOutput() string {
	if c.Output == "" {
		return OutputText
	}
	return c.Output
}
