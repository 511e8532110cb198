// Package config provides centralized configuration for Carebook runtime values.
package config

import (
	"os"
	"strconv"
	"time"
)

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	// Plan configuration
	Plan PlanConfig

	// Scheduler configuration
	Scheduler SchedulerConfig

	// HTTP client configuration
	HTTP HTTPConfig

	// Daemon configuration
	Daemon DaemonConfig
}

// PlanConfig holds alert planning configuration.
type PlanConfig struct {
	// ReminderLead is how long before the appointment the reminder fires.
	// Default: 5m
	ReminderLead time.Duration

	// SuppressPastAtTime suppresses the at-time alert when the appointment
	// date is already in the past at scheduling time. The observed behavior
	// of the companion app always requests the at-time alert, so this
	// defaults to false.
	SuppressPastAtTime bool
}

// SchedulerConfig holds daemon scheduler configuration.
type SchedulerConfig struct {
	// TickSpec is the cron spec for the alert delivery tick.
	// Default: every minute on the minute.
	TickSpec string

	// SleepThreshold is the time gap that indicates the system was sleeping.
	// If elapsed time since last tick exceeds this, the stale pass is skipped.
	// Default: 1h
	SleepThreshold time.Duration
}

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the default HTTP request timeout.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// RetryDelays are the delays between retry attempts.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before
	// checking status. Default: 500ms
	StartupWait time.Duration

	// KillTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	KillTimeout time.Duration
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Plan: PlanConfig{
			ReminderLead:       5 * time.Minute,
			SuppressPastAtTime: false,
		},
		Scheduler: SchedulerConfig{
			TickSpec:       "0 * * * * *",
			SleepThreshold: time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,
				5 * time.Second,
				30 * time.Second,
			},
		},
		Daemon: DaemonConfig{
			StartupWait: 500 * time.Millisecond,
			KillTimeout: 5 * time.Second,
		},
	}
}

// Global is the package-level runtime configuration, initialized from
// defaults and environment overrides.
var Global = Load()

// Load returns the runtime configuration with environment overrides applied.
//
// Supported variables:
//
//	CAREBOOK_REMINDER_LEAD         duration, e.g. "10m"
//	CAREBOOK_SUPPRESS_PAST_ATTIME  bool
//	CAREBOOK_TICK_SPEC             cron spec with seconds field
//	CAREBOOK_SLEEP_THRESHOLD       duration
//	CAREBOOK_HTTP_TIMEOUT          duration
func Load() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()

	cfg.Plan.ReminderLead = envDuration("CAREBOOK_REMINDER_LEAD", cfg.Plan.ReminderLead)
	cfg.Plan.SuppressPastAtTime = envBool("CAREBOOK_SUPPRESS_PAST_ATTIME", cfg.Plan.SuppressPastAtTime)
	cfg.Scheduler.TickSpec = envString("CAREBOOK_TICK_SPEC", cfg.Scheduler.TickSpec)
	cfg.Scheduler.SleepThreshold = envDuration("CAREBOOK_SLEEP_THRESHOLD", cfg.Scheduler.SleepThreshold)
	cfg.HTTP.Timeout = envDuration("CAREBOOK_HTTP_TIMEOUT", cfg.HTTP.Timeout)

	return cfg
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(name string, fallback bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
