// Package config handles mapparse configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/brushmap/internal/logger"
	"github.com/Faultbox/brushmap/pkg/encoding"
	"github.com/Faultbox/brushmap/pkg/math"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all mapparse settings.
type Config struct {
	Geometry GeometryConfig `yaml:"geometry"`
	Parser   ParserConfig   `yaml:"parser"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GeometryConfig holds the numeric tolerances used to build polygons.
type GeometryConfig struct {
	Epsilon           float64 `yaml:"epsilon"`
	SignificantDigits int     `yaml:"significant_digits"` // 0 disables rounding
}

// ParserConfig holds input handling settings.
type ParserConfig struct {
	Encoding string `yaml:"encoding"` // see encoding.Names
	Workers  int    `yaml:"workers"`  // 0 = one per CPU
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	JSON       bool   `yaml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Geometry: GeometryConfig{
			Epsilon:           math.DefaultEpsilon,
			SignificantDigits: math.DefaultSignificantDigits,
		},
		Parser: ParserConfig{
			Encoding: encoding.Auto,
			Workers:  0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Tolerance returns the geometry settings as a math.Tolerance.
func (g GeometryConfig) Tolerance() math.Tolerance {
	return math.Tolerance{Epsilon: g.Epsilon, SignificantDigits: g.SignificantDigits}
}

// LoggerOptions returns the logging settings in the form logger.InitWithOptions takes.
// Console output is left for the caller to choose.
func (l LoggingConfig) LoggerOptions() logger.Options {
	opts := logger.Options{Level: l.Level, JSON: l.JSON}
	if l.LogFile != "" {
		opts.File = logger.DefaultFileConfig(l.LogFile)
		if l.MaxSizeMB > 0 {
			opts.File.MaxSizeMB = l.MaxSizeMB
		}
		if l.MaxBackups > 0 {
			opts.File.MaxBackups = l.MaxBackups
		}
	}
	return opts
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if !(c.Geometry.Epsilon > 0) {
		return fmt.Errorf("%w: geometry.epsilon must be positive, got %g", ErrInvalid, c.Geometry.Epsilon)
	}
	if c.Geometry.SignificantDigits < 0 || c.Geometry.SignificantDigits > 17 {
		return fmt.Errorf("%w: geometry.significant_digits must be in 0..17, got %d", ErrInvalid, c.Geometry.SignificantDigits)
	}
	if c.Parser.Workers < 0 {
		return fmt.Errorf("%w: parser.workers must not be negative, got %d", ErrInvalid, c.Parser.Workers)
	}
	if _, err := encoding.Lookup(c.Parser.Encoding); err != nil {
		return fmt.Errorf("%w: parser.encoding: %v", ErrInvalid, err)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}
