package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config defines logging configuration.
type Config struct {
	// Level sets the minimum log level
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format sets the output format (json, text)
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives log lines instead of stderr
	File string `json:"file" yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
	}
}

// ApplyConfig creates a logger from a configuration.
func ApplyConfig(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	options := []LoggerOption{WithLevel(level)}

	switch strings.ToLower(config.Format) {
	case "json":
		options = append(options, WithFormatter(&logrus.JSONFormatter{}))
	case "text", "":
		options = append(options, WithFormatter(&logrus.TextFormatter{FullTimestamp: true}))
	default:
		return nil, fmt.Errorf("invalid log format: %s", config.Format)
	}

	if config.File != "" {
		w, err := openLogFile(config.File)
		if err != nil {
			return nil, err
		}
		options = append(options, WithOutput(w))
	}

	return NewLogger(options...), nil
}

func openLogFile(path string) (io.Writer, error) {
	f, err := os.OpenFile(os.ExpandEnv(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, nil
}
