package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	assert.Equal(t, 5*time.Minute, cfg.Plan.ReminderLead)
	assert.False(t, cfg.Plan.SuppressPastAtTime)
	assert.Equal(t, "0 * * * * *", cfg.Scheduler.TickSpec)
	assert.Equal(t, time.Hour, cfg.Scheduler.SleepThreshold)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Len(t, cfg.HTTP.RetryDelays, 3)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CAREBOOK_REMINDER_LEAD", "10m")
	t.Setenv("CAREBOOK_SUPPRESS_PAST_ATTIME", "true")
	t.Setenv("CAREBOOK_TICK_SPEC", "30 * * * * *")

	cfg := Load()
	assert.Equal(t, 10*time.Minute, cfg.Plan.ReminderLead)
	assert.True(t, cfg.Plan.SuppressPastAtTime)
	assert.Equal(t, "30 * * * * *", cfg.Scheduler.TickSpec)
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("CAREBOOK_REMINDER_LEAD", "not-a-duration")
	t.Setenv("CAREBOOK_SUPPRESS_PAST_ATTIME", "maybe")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.Plan.ReminderLead)
	assert.False(t, cfg.Plan.SuppressPastAtTime)
}

func TestGlobalInitialized(t *testing.T) {
	assert.NotNil(t, Global)
	assert.Positive(t, Global.Plan.ReminderLead)
}
