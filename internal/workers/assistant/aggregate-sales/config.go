// internal/workers/assistant/aggregate-sales/config.go
package aggregatesales

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
