// Package config loads gostratus tool configuration.
//
// Precedence, lowest to highest: built-in defaults, an optional config
// file (gostratus.yaml in the working directory or $HOME/.gostratus/),
// GOSTRATUS_* environment variables, then runtime overrides passed by the
// caller. Benchmark manifests (pkg/manifest) describe individual sessions
// and take precedence over everything here for the fields they set.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the resolved tool configuration.
type Config struct {
	Cluster   ClusterSettings   `mapstructure:"cluster"`
	Monitor   MonitorSettings   `mapstructure:"monitor"`
	Logging   LoggingSettings   `mapstructure:"logging"`
	Simulator SimulatorSettings `mapstructure:"simulator"`
}

// ClusterSettings is the default control-plane endpoint.
type ClusterSettings struct {
	Host      string  `mapstructure:"host"`
	Port      int     `mapstructure:"port"`
	Container string  `mapstructure:"container"`
	RateLimit float64 `mapstructure:"rate_limit"`
}

// MonitorSettings is the default poll-loop timing.
type MonitorSettings struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	Settle       time.Duration `mapstructure:"settle"`
	Strict       bool          `mapstructure:"strict"`
}

// LoggingSettings controls CLI diagnostics.
type LoggingSettings struct {
	Level string `mapstructure:"level"`
}

// SimulatorSettings configures the local control-plane emulator.
type SimulatorSettings struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	JobRuntime time.Duration `mapstructure:"job_runtime"`
}

// Load resolves the tool configuration.
//
// Optional overrides maps are applied last, in order, with viper's
// merge semantics (nested keys merge, scalars replace).
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("gostratus")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.gostratus")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file is fine; defaults and env carry the load.
	}

	v.SetEnvPrefix("GOSTRATUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, o := range overrides {
		if err := v.MergeConfigMap(o); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cluster.host", "localhost")
	v.SetDefault("cluster.port", 8081)
	v.SetDefault("cluster.container", "flink-jobmanager")
	v.SetDefault("cluster.rate_limit", 0.0)

	v.SetDefault("monitor.poll_interval", 2*time.Second)
	v.SetDefault("monitor.max_wait", 120*time.Second)
	v.SetDefault("monitor.settle", 2*time.Second)
	v.SetDefault("monitor.strict", false)

	v.SetDefault("logging.level", "info")

	v.SetDefault("simulator.host", "127.0.0.1")
	v.SetDefault("simulator.port", 8081)
	v.SetDefault("simulator.job_runtime", 10*time.Second)
}
