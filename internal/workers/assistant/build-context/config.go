// internal/workers/assistant/build-context/config.go
package buildcontext

import "time"

type Config struct {
	Timeout time.Duration
	// DefaultMonth is used when a request carries no month.
	DefaultMonth string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultMonth: "2025-09",
	}
}
