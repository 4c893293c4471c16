package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/timemux/timemux-go/pkg/history"
)

// Duration wraps time.Duration for YAML parsing with ParseDuration syntax.
type Duration time.Duration

// UnmarshalYAML accepts duration strings like "500ms" or "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in ParseDuration syntax.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Subscription declares a subscriber to establish at startup.
type Subscription struct {
	// Name labels the subscriber in output.
	Name string `yaml:"name"`

	// Interval is the maximum acceptable update interval.
	// Ignored when Unbounded is set.
	Interval Duration `yaml:"interval,omitempty"`

	// Unbounded accepts any update rate without driving the schedule.
	Unbounded bool `yaml:"unbounded,omitempty"`
}

// Log configures event logging.
type Log struct {
	// File receives CBOR-encoded engine events. Empty disables file logging.
	File string `yaml:"file,omitempty"`

	// Slog mirrors events to structured stderr logging.
	Slog bool `yaml:"slog,omitempty"`
}

// Config is the top-level configuration document.
type Config struct {
	// EngineID identifies the engine in logged events.
	EngineID string `yaml:"engine_id,omitempty"`

	// HistoryDepth bounds the retained tick history.
	HistoryDepth int `yaml:"history_depth,omitempty"`

	Log Log `yaml:"log,omitempty"`

	Subscriptions []Subscription `yaml:"subscriptions,omitempty"`
}

// Default returns a configuration with usable defaults and no
// startup subscriptions.
func Default() *Config {
	return &Config{
		HistoryDepth: history.DefaultDepth,
		Log:          Log{Slog: true},
	}
}

// LoadError provides details about a configuration loading error.
type LoadError struct {
	// File is the path that failed to load.
	File string

	// Field names the offending field, if known.
	Field string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse parses a configuration document from YAML bytes and validates it.
// Omitted fields take their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.HistoryDepth <= 0 {
		return &LoadError{
			Field:   "history_depth",
			Message: fmt.Sprintf("must be positive, got %d", c.HistoryDepth),
		}
	}

	for i, sub := range c.Subscriptions {
		field := fmt.Sprintf("subscriptions[%d]", i)
		if sub.Name == "" {
			return &LoadError{
				Field:   field,
				Message: "name is required",
			}
		}
		if sub.Unbounded && sub.Interval != 0 {
			return &LoadError{
				Field:   field,
				Message: "interval and unbounded are mutually exclusive",
			}
		}
		if !sub.Unbounded && sub.Interval <= 0 {
			return &LoadError{
				Field:   field,
				Message: "interval must be positive unless unbounded",
			}
		}
	}

	return nil
}
