// internal/workers/reminders/dispatch-batch/config.go
package dispatchbatch

import "time"

type Config struct {
	// A paced run over a few hundred recipients takes hours; the job timeout
	// has to cover the worst case including cooldowns.
	Timeout time.Duration

	ProgressKey string
	ProgressTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     8 * time.Hour,
		ProgressKey: "docflow:reminders:batch_progress",
		ProgressTTL: time.Hour,
	}
}
