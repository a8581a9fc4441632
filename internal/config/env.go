package config

import "github.com/caarlos0/env/v11"

// Env holds the environment-variable overlay spec.md §2.1 allows on top of
// the directive-file configuration: a default config path so the binary can
// be invoked with no positional argument in a container/systemd unit, and an
// optional metrics listen address. Struct-tag-driven env parsing mirrors
// sandrolain-events-bridge's config.LoadEnvConfigFile, the pack's own
// github.com/caarlos0/env/v11 usage.
type Env struct {
	ConfigPath  string `env:"WEBSERV_CONFIG"`
	MetricsAddr string `env:"WEBSERV_METRICS_ADDR"`
}

// LoadEnv reads the WEBSERV_* environment overlay. A zero-value field means
// the corresponding variable was unset; callers fall back to a CLI flag or a
// built-in default in that case.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
