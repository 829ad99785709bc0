package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("segredo123")
	require.NoError(t, err)
	require.NotEqual(t, "segredo123", hash)

	assert.True(t, CheckPassword(hash, "segredo123"))
	assert.False(t, CheckPassword(hash, "segredo124"))
	assert.False(t, CheckPassword("", "segredo123"))
}
