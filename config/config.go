// Package config provides configuration loading and management for citybridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete citybridge configuration
type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ConversionConfig configures IFC to CityGML conversion
type ConversionConfig struct {
	// InputPattern selects input files by base name (doublestar syntax,
	// matched case-insensitively)
	InputPattern string `yaml:"input_pattern" validate:"required"`
	// OutputExtension is appended to the input stem for output files
	OutputExtension string `yaml:"output_extension" validate:"required,startswith=."`
	// StoreyOrder is "source" or "name"
	StoreyOrder string `yaml:"storey_order" validate:"oneof=source name"`
	// IncludeGlobalID emits building GlobalIds as generic attributes
	IncludeGlobalID bool `yaml:"include_global_id"`
	// Workers is the number of files converted concurrently
	Workers int `yaml:"workers" validate:"min=1,max=64"`
}

// ValidationConfig configures parity validation
type ValidationConfig struct {
	// TargetExtension is the extension of the CityGML counterpart files
	TargetExtension string `yaml:"target_extension" validate:"required,startswith=."`
}

// LoggingConfig configures diagnostic logging
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile is where Prometheus metrics are written after a run (empty = disabled)
	Textfile string `yaml:"textfile"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// DebounceDelay is how long to wait for writes to settle before converting
	DebounceDelay time.Duration `yaml:"debounce_delay" validate:"min=0"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{
			InputPattern:    "*.ifc",
			OutputExtension: ".gml",
			StoreyOrder:     "source",
			Workers:         1,
		},
		Validation: ValidationConfig{
			TargetExtension: ".gml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			DebounceDelay: 500 * time.Millisecond,
		},
	}
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				return fmt.Errorf("%s: failed %s=%s check (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("%s: failed %s check", field, fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if !doublestar.ValidatePattern(c.Conversion.InputPattern) {
		return fmt.Errorf("conversion.input_pattern: invalid pattern %q", c.Conversion.InputPattern)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.ApplyFile(path); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyFile decodes a YAML file over the current values. Keys absent from
// the file keep their current value.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Conversion
	if other.Conversion.InputPattern != "" {
		c.Conversion.InputPattern = other.Conversion.InputPattern
	}
	if other.Conversion.OutputExtension != "" {
		c.Conversion.OutputExtension = other.Conversion.OutputExtension
	}
	if other.Conversion.StoreyOrder != "" {
		c.Conversion.StoreyOrder = other.Conversion.StoreyOrder
	}
	if other.Conversion.IncludeGlobalID {
		c.Conversion.IncludeGlobalID = true
	}
	if other.Conversion.Workers != 0 {
		c.Conversion.Workers = other.Conversion.Workers
	}

	// Validation
	if other.Validation.TargetExtension != "" {
		c.Validation.TargetExtension = other.Validation.TargetExtension
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}

	// Metrics
	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}

	// Watch
	if other.Watch.DebounceDelay != 0 {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
}
