package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv reads the environment variables named by the `env` tags on
// Config and toggles. Unset or empty variables leave the zero value so they
// never override a lower precedence layer.
func parseEnv() (layer, error) {
	var l layer
	if err := env.Parse(&l.Config); err != nil {
		return layer{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := env.Parse(&l.Toggles); err != nil {
		return layer{}, fmt.Errorf("parse environment: %w", err)
	}
	return l, nil
}
