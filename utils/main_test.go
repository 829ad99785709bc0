package utils

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// The config layer refuses to start without its secrets.
	os.Setenv("JWT_SECRET", "test-jwt-secret")
	os.Setenv("MODERATION_SECRET", "test-moderation-secret")
	os.Setenv("BASE_URL", "https://aldeia.test")
	os.Exit(m.Run())
}
