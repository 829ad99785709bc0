package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	assert.Equal(t, "olá", Sanitize(`olá<script>alert(1)</script>`))
	assert.NotContains(t, Sanitize(`<img src=x onerror=alert(1)>texto`), "onerror")
}

func TestSanitizeKeepsPlainText(t *testing.T) {
	assert.Equal(t, "um desabafo normal", Sanitize("um desabafo normal"))
}
