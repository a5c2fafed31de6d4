// Package config loads settings for chainflow programs from YAML files,
// .env files and CHAINFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/vnykmshr/chainflow/internal/logging"
	"github.com/vnykmshr/chainflow/pkg/common/validation"
)

// EnvPrefix prefixes environment overrides, e.g. CHAINFLOW_SOURCE_KEY.
const EnvPrefix = "CHAINFLOW"

// File is the full program configuration.
type File struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  logging.Config `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Source   SourceConfig   `mapstructure:"source"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
}

// PipelineConfig names the pipeline.
type PipelineConfig struct {
	Name string `mapstructure:"name"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Listen    string `mapstructure:"listen"`
	Namespace string `mapstructure:"namespace"`
}

// SourceConfig describes the Redis list drained by the pipeline.
type SourceConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Key           string        `mapstructure:"key"`
	BlockTimeout  time.Duration `mapstructure:"block_timeout"`
	StopWhenEmpty bool          `mapstructure:"stop_when_empty"`
}

// ThrottleConfig limits the pull rate. A zero Rate disables throttling.
// Shared keeps the bucket in Redis so every drainer of the key shares it.
type ThrottleConfig struct {
	Rate   float64 `mapstructure:"rate"`
	Burst  int     `mapstructure:"burst"`
	Shared bool    `mapstructure:"shared"`
}

// LoaderConfig points at optional explicit files.
type LoaderConfig struct {
	// ConfigFile is a YAML file. Empty means defaults plus environment only.
	ConfigFile string

	// EnvFile is loaded into the process environment first. Empty means
	// ".env" if it exists.
	EnvFile string
}

// Load reads configuration in increasing precedence: defaults, ConfigFile,
// environment (including EnvFile). The result is validated.
func Load(opts LoaderConfig) (*File, error) {
	if err := loadEnv(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logging.FormatConsole)
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9090")
	v.SetDefault("metrics.namespace", "chainflow")
	v.SetDefault("source.redis_addr", "localhost:6379")
	v.SetDefault("source.redis_password", "")
	v.SetDefault("source.redis_db", 0)
	v.SetDefault("source.key", "")
	v.SetDefault("source.block_timeout", time.Second)
	v.SetDefault("source.stop_when_empty", false)
	v.SetDefault("throttle.rate", 0.0)
	v.SetDefault("throttle.burst", 1)
	v.SetDefault("throttle.shared", false)
}

// Validate checks every section.
func (f *File) Validate() error {
	if err := f.Logging.Validate(); err != nil {
		return err
	}
	if f.Metrics.Enabled {
		if err := validation.ValidateNotEmpty("config", "metrics.listen", f.Metrics.Listen); err != nil {
			return err
		}
	}
	if err := validation.ValidateNotEmpty("config", "source.redis_addr", f.Source.RedisAddr); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("config", "source.key", f.Source.Key); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", "source.block_timeout", f.Source.BlockTimeout); err != nil {
		return err
	}
	if f.Throttle.Rate != 0 {
		if err := validation.ValidatePositiveFloat("config", "throttle.rate", f.Throttle.Rate); err != nil {
			return err
		}
		if err := validation.ValidatePositive("config", "throttle.burst", f.Throttle.Burst); err != nil {
			return err
		}
	}
	return nil
}
