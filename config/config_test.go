package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	os.Setenv("MODERATION_SECRET", "test-moderation-secret")
	os.Setenv("MODERATOR_EMAILS", "guardia@demaesdadas.app, admin@demaesdadas.app")
	os.Exit(m.Run())
}

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, c.BaseURL, c.OAuthRedirectBase)
	assert.Equal(t, 48, c.ModerationLinkTTLH)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "https://api.brevo.com/v3", c.CRMBaseURL)
	assert.Equal(t, 2, c.CRMDefaultListID)
	assert.Equal(t, 3, c.CRMInterestListID)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim("a, b"))
	assert.Equal(t, []string{"a"}, splitAndTrim("a,,  ,"))
	assert.Empty(t, splitAndTrim(""))
}

func TestIsModeratorEmail(t *testing.T) {
	assert.True(t, IsModeratorEmail("guardia@demaesdadas.app"))
	assert.True(t, IsModeratorEmail("GUARDIA@demaesdadas.app"), "match is case-insensitive")
	assert.True(t, IsModeratorEmail("admin@demaesdadas.app"))
	assert.False(t, IsModeratorEmail("outra@demaesdadas.app"))
	assert.False(t, IsModeratorEmail(""))
}
