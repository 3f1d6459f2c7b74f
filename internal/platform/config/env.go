package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment variable read by challenge.space.
const EnvPrefix = "CHALLENGE_SPACE_"

// ParseEnv loads configuration from CHALLENGE_SPACE_-prefixed environment
// variables. Struct tags name the variable without the prefix.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
