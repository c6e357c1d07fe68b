package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for every environment override, e.g.
// FEEDBACK_LOG_LEVEL.
const EnvPrefix = "FEEDBACK"

// Env carries process-level settings read from the environment. Flags take
// precedence over Env, and Env over the config file.
type Env struct {
	ConfigPath     string `envconfig:"CONFIG" default:"configs/feedback.json"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"text"`
	MetricsBackend string `envconfig:"METRICS_BACKEND"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
	DatadogAddr    string `envconfig:"DATADOG_ADDR"`
	ServerAddr     string `envconfig:"SERVER_ADDR"`
}

// LoadEnv processes FEEDBACK_* variables into an Env.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("config: load env: %w", err)
	}
	return e, nil
}

// Override copies the non-empty environment settings onto c.
func (e Env) Override(c *Config) {
	if e.MetricsBackend != "" {
		c.Metrics.Backend = e.MetricsBackend
	}
	if e.PushgatewayURL != "" {
		c.Metrics.PushgatewayURL = e.PushgatewayURL
	}
	if e.DatadogAddr != "" {
		c.Metrics.DatadogAddr = e.DatadogAddr
	}
	if e.ServerAddr != "" {
		c.Server.Addr = e.ServerAddr
	}
}
