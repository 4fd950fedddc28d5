// internal/workers/reminders/scan-candidates/config.go
package scancandidates

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 60 * time.Second,
	}
}
