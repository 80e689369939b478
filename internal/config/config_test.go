package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("KAFKA_BROKER", "")

	cfg := LoadConfig()

	assert.True(t, cfg.DemoMode(), "missing credentials should select demo mode")
	assert.False(t, cfg.Supabase.Enabled())
	assert.False(t, cfg.Gemini.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("KAFKA_BROKER", "kafka:9092")
	t.Setenv("JWT_EXPIRATION", "12")
	t.Setenv("STORAGE_MAX_IMAGE_SIZE", "1024")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadConfig()

	assert.False(t, cfg.DemoMode())
	assert.True(t, cfg.Supabase.Enabled())
	assert.True(t, cfg.Gemini.Enabled())
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(1024), cfg.Storage.MaxImageSize)
	assert.Equal(t, 0, cfg.Redis.DB, "invalid ints fall back to the default")
}
