package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables using `env` struct tags.
//
//	type Config struct {
//	    HTTPPort int    `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
//	    CacheDir string `env:"STOREFRONT_CACHE_DIR" envDefault:"./data/cache"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
