package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVerificationCode(t *testing.T) {
	code := GenerateVerificationCode(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "code %q must be numeric", code)
	}

	assert.Len(t, GenerateVerificationCode(0), 6, "non-positive length falls back to 6")
}

func TestVerifyAndConsumeCode(t *testing.T) {
	SaveCode(CodePurposeVerify, "a@example.com", "123456", time.Minute)

	assert.False(t, VerifyAndConsumeCode(CodePurposeVerify, "a@example.com", "000000"))
	assert.True(t, VerifyAndConsumeCode(CodePurposeVerify, "a@example.com", "123456"))
	assert.False(t, VerifyAndConsumeCode(CodePurposeVerify, "a@example.com", "123456"), "code is single use")
}

func TestCheckCodeDoesNotConsume(t *testing.T) {
	SaveCode(CodePurposeReset, "b@example.com", "654321", time.Minute)

	assert.True(t, CheckCode(CodePurposeReset, "b@example.com", "654321"))
	assert.True(t, CheckCode(CodePurposeReset, "b@example.com", "654321"), "check must not consume")
	assert.True(t, VerifyAndConsumeCode(CodePurposeReset, "b@example.com", "654321"))
	assert.False(t, CheckCode(CodePurposeReset, "b@example.com", "654321"))
}

func TestCodePurposesAreIsolated(t *testing.T) {
	SaveCode(CodePurposeVerify, "c@example.com", "111111", time.Minute)

	assert.False(t, CheckCode(CodePurposeReset, "c@example.com", "111111"))
	assert.True(t, VerifyAndConsumeCode(CodePurposeVerify, "c@example.com", "111111"))
}

func TestEmailCooldown(t *testing.T) {
	assert.True(t, EmailCooldownTrySet("cool@example.com", time.Minute))
	assert.False(t, EmailCooldownTrySet("cool@example.com", time.Minute))
	assert.True(t, EmailCooldownTrySet("other@example.com", time.Minute))
}
