// Package config loads configuration structs from environment variables. All
// variables in this module carry the MESCHOOLDATA_ prefix, spelled out in the
// env tags of each config struct.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv fills target from the environment according to its env tags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
