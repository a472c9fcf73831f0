// Package config loads the gcu configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rzbill/gcu/pkg/checkpoint"
	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GCU_LOG_LEVEL.
	EnvPrefix = "GCU"

	// DefaultYangDir is where SONiC installs its YANG models.
	DefaultYangDir = "/usr/local/yang-models"

	// DefaultDataDir holds the live ConfigDB store.
	DefaultDataDir = "/var/lib/gcu"
)

// Log selects the level, format and destination of the log output.
type Log struct {
	// Level is any level log.ParseLevel accepts.
	Level  string `mapstructure:"level" yaml:"level" validate:"loglevel"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	// File, when set, receives the log output instead of stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// Metrics configures the Prometheus textfile export.
type Metrics struct {
	// Textfile is written after every command for the node exporter
	// textfile collector. Empty disables it.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Store configures the live ConfigDB store.
type Store struct {
	// EnforceReferences makes the live store reject every change that
	// would break a schema reference.
	EnforceReferences bool `mapstructure:"enforce_references" yaml:"enforce_references"`
}

// Config is the gcu configuration file.
type Config struct {
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir" validate:"required"`
	CheckpointDir string `mapstructure:"checkpoint_dir" yaml:"checkpoint_dir" validate:"required"`
	YangDir       string `mapstructure:"yang_dir" yaml:"yang_dir" validate:"required"`

	// Namespaces lists the configuration instances by name: localhost for
	// the default one, asicN for the others.
	Namespaces []string `mapstructure:"namespaces" yaml:"namespaces" validate:"min=1,unique,dive,namespace"`

	Log     Log     `mapstructure:"log" yaml:"log"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
	Store   Store   `mapstructure:"store" yaml:"store"`
}

// Default returns the configuration used for every unset value.
func Default() *Config {
	return &Config{
		DataDir:       DefaultDataDir,
		CheckpointDir: checkpoint.DefaultDir,
		YangDir:       DefaultYangDir,
		Namespaces:    []string{types.DefaultNamespaceName},
		Log:           Log{Level: "info", Format: "text"},
		Store:         Store{EnforceReferences: true},
	}
}

// StorePath returns the directory of the live ConfigDB store.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "configdb")
}

// NamespaceIDs returns the configured namespaces with the default one as "".
func (c *Config) NamespaceIDs() []string {
	out := make([]string, len(c.Namespaces))
	for i, name := range c.Namespaces {
		out[i] = types.NamespaceFromName(name)
	}
	return out
}

// Load reads the configuration from path, or from gcu.yaml in /etc/gcu or
// $HOME/.gcu when path is empty. A missing default file is not an error.
// GCU_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("gcu")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/gcu/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".gcu"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("checkpoint_dir", cfg.CheckpointDir)
	v.SetDefault("yang_dir", cfg.YangDir)
	v.SetDefault("namespaces", cfg.Namespaces)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)
	v.SetDefault("store.enforce_references", cfg.Store.EnforceReferences)
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("namespace", func(fl validator.FieldLevel) bool {
		return types.IsNamespaceName(fl.Field().String())
	})
	v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := log.ParseLevel(fl.Field().String())
		return err == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks every field and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "loglevel":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a log level (debug, info, warn or error)", field, fe.Value()))
		case "namespace":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a namespace name (localhost or asicN)", field, fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
