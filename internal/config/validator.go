// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals and defaults the merged Koanf tree.  Any tag mismatch aborts
// startup, ensuring the binary never runs with partial, malformed, or
// missing configuration.
//
// Cross-field rules that tags cannot express live in `crossCheck`.

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	return crossCheck(c)
}

func crossCheck(c *Config) error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("config: database.max_idle_conns (%d) exceeds max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Cache.MinIdleConns > c.Cache.PoolSize {
		return fmt.Errorf("config: cache.min_idle_conns (%d) exceeds pool_size (%d)",
			c.Cache.MinIdleConns, c.Cache.PoolSize)
	}
	return nil
}
