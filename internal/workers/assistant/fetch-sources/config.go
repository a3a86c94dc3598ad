// internal/workers/assistant/fetch-sources/config.go
package fetchsources

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
