package meschooldata

import "github.com/maine-ed-data/meschooldata-go/internal/platform/config"

// Config controls how the client locates the external package.
type Config struct {
	// PackageName is the module name passed to require. The default matches
	// the published meschooldata package.
	PackageName string `env:"MESCHOOLDATA_PACKAGE" envDefault:"meschooldata"`

	// PackagePath lists extra directories searched for the package, separated
	// by ';'. They take precedence over the interpreter's default search
	// path. Empty means defaults only.
	PackagePath string `env:"MESCHOOLDATA_PACKAGE_PATH"`
}

// ConfigFromEnv loads configuration from MESCHOOLDATA_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
