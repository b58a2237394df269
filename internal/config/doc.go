// Package config loads runtime configuration for the configme command from
// multiple sources (YAML file, environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
// Layers are combined with mergo; environment variables are read with
// caarlos0/env.
package config
