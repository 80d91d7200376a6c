package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Chat.TypingWindow)
	assert.Equal(t, 256, cfg.Chat.SendBuffer)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []byte("test-secret"), cfg.JWT.Secret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("TYPING_WINDOW", "5s")
	t.Setenv("SEND_BUFFER", "64")
	t.Setenv("PORT", ":9090")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Chat.TypingWindow)
	assert.Equal(t, 64, cfg.Chat.SendBuffer)
}
