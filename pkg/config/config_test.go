package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Second, cfg.Reminders.CallTimeout)
	assert.Equal(t, "planner:reminders", cfg.Notify.RedisChannel)
	assert.False(t, cfg.Reminders.ClassEnabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REMINDER_CALL_TIMEOUT", "750ms")
	t.Setenv("REMINDERS_CLASS_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("TELEGRAM_CHAT_ID", "4242")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Reminders.CallTimeout)
	assert.True(t, cfg.Reminders.ClassEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int64(4242), cfg.Notify.TelegramChatID)
}

func TestReminderLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, ReminderConfig{Timezone: "Nowhere/Invalid"}.Location())
	assert.Equal(t, time.UTC, ReminderConfig{}.Location())
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
