package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SESSION_STORE", "MOVE_RATE_RPS", "REQUEST_TIMEOUT", "NODE_ENV"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	assert.Equal(t, "5175", cfg.Port)
	assert.Equal(t, "sqlite", cfg.SessionStore)
	assert.Equal(t, 5, cfg.MoveRPS)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Production)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("MOVE_RATE_RPS", "2")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("NODE_ENV", "production")

	cfg := loadConfig()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.Equal(t, 2, cfg.MoveRPS)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Production)
}

func TestLoadConfigBadNumbersFallBack(t *testing.T) {
	t.Setenv("MOVE_RATE_BURST", "lots")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := loadConfig()
	assert.Equal(t, 10, cfg.MoveBurst)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}
