package scheduler

import (
	"time"

	"github.com/openwater/returns/internal/config"
)

// Config controls the generation schedule and job timeout.
type Config struct {
	// Schedule is a cron expression; default is 02:00 daily.
	Schedule   string
	JobTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Schedule:   "0 2 * * *",
		JobTimeout: 30 * time.Minute,
	}
}

func ProvideConfig(appCfg config.Config) Config {
	return Config{
		Schedule:   appCfg.GenerateSchedule,
		JobTimeout: time.Duration(appCfg.GenerateJobTimeout) * time.Second,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
