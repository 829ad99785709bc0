package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken(12, "Maria", "maria@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	assert.Equal(t, "Maria", claims.Username)
	assert.Equal(t, "maria@example.com", claims.Email)
}

func TestParseExpiredToken(t *testing.T) {
	token, err := GenerateToken(12, "Maria", "maria@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestParseGarbageToken(t *testing.T) {
	_, err := ParseToken("not.a.token")
	assert.Error(t, err)
}
