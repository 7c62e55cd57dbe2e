// Package conf loads the application configuration from config.yaml and
// NEURAFORM_* environment overrides.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/neuraform/neuraform/internal/audit"
	"github.com/neuraform/neuraform/internal/log"
	"github.com/neuraform/neuraform/internal/orchestrator"
	"github.com/neuraform/neuraform/internal/policy"
	"github.com/neuraform/neuraform/internal/router"
)

// Config is the full application configuration.
type Config struct {
	Name string `conf:"name" yaml:"name" json:"name"`

	Log          log.Config          `conf:"log"          yaml:"log"          json:"log"`
	Policy       policy.Config       `conf:"policy"       yaml:"policy"       json:"policy"`
	Router       router.Config       `conf:"router"       yaml:"router"       json:"router"`
	Audit        audit.Config        `conf:"audit"        yaml:"audit"        json:"audit"`
	Orchestrator orchestrator.Config `conf:"orchestrator" yaml:"orchestrator" json:"orchestrator"`
}

func defaultConfig() Config {
	return Config{
		Name:         "neuraform",
		Log:          log.DefaultConfig(),
		Policy:       policy.Config{File: "policy.yaml"},
		Router:       router.DefaultConfig(),
		Audit:        audit.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
	}
}

// Load reads config.yaml from the working directory, ~/.neuraform, or
// /etc/neuraform, applies NEURAFORM_* environment overrides, and falls
// back to defaults when no file exists.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.neuraform")
	v.AddConfigPath("/etc/neuraform")

	v.SetEnvPrefix("NEURAFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as the key registry: AutomaticEnv only overrides
	// keys viper knows about.
	defaults := defaultConfig()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("log.name", defaults.Log.Name)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("policy.file", defaults.Policy.File)
	v.SetDefault("policy.watch", defaults.Policy.Watch)
	v.SetDefault("router.probe_timeout", defaults.Router.ProbeTimeout)
	v.SetDefault("router.re_probe_cron", defaults.Router.ReProbeCron)
	v.SetDefault("audit.queue_size", defaults.Audit.QueueSize)
	v.SetDefault("orchestrator.audit_timeout", defaults.Orchestrator.AuditTimeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: read config: %w", err)
		}
	}

	config := defaults

	err := v.Unmarshal(&config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)),
		func(dc *mapstructure.DecoderConfig) {
			dc.TagName = "conf"
		},
	)
	if err != nil {
		return Config{}, fmt.Errorf("conf: decode config: %w", err)
	}

	return config, nil
}
