package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationTokenRoundTrip(t *testing.T) {
	nonce := NewModerationNonce()
	token := SignModerationToken("post", 42, "approve", nonce, time.Hour)

	claims, err := VerifyModerationToken(token)
	require.NoError(t, err)
	assert.Equal(t, "post", claims.Kind)
	assert.Equal(t, uint(42), claims.ItemID)
	assert.Equal(t, "approve", claims.Decision)
	assert.Equal(t, nonce, claims.Nonce)
	assert.True(t, claims.Expires.After(time.Now()))
}

func TestModerationTokenExpired(t *testing.T) {
	token := SignModerationToken("comment", 7, "reject", NewModerationNonce(), -time.Minute)

	_, err := VerifyModerationToken(token)
	assert.ErrorIs(t, err, ErrModTokenExpired)
}

func TestModerationTokenTampered(t *testing.T) {
	token := SignModerationToken("post", 42, "reject", NewModerationNonce(), time.Hour)

	// flip the decision inside the payload half, keep the signature
	dot := strings.IndexByte(token, '.')
	require.Greater(t, dot, 0)
	other := SignModerationToken("post", 42, "approve", NewModerationNonce(), time.Hour)
	forged := other[:strings.IndexByte(other, '.')] + token[dot:]

	_, err := VerifyModerationToken(forged)
	assert.ErrorIs(t, err, ErrModTokenSignature)
}

func TestModerationTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "nodot", ".", "a.b", "!!!.???"} {
		_, err := VerifyModerationToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestSpendModerationNonceSingleUse(t *testing.T) {
	nonce := NewModerationNonce()

	assert.True(t, SpendModerationNonce(nonce, time.Minute))
	assert.False(t, SpendModerationNonce(nonce, time.Minute), "second spend of the same nonce must fail")

	// a different nonce is unaffected
	assert.True(t, SpendModerationNonce(NewModerationNonce(), time.Minute))
}

func TestModerationLinkPairSharesOutcome(t *testing.T) {
	approveURL, rejectURL := ModerationLinkPair("post", 9)

	require.Contains(t, approveURL, "/api/v1/moderation/link?token=")
	require.Contains(t, rejectURL, "/api/v1/moderation/link?token=")

	approveClaims, err := VerifyModerationToken(approveURL[strings.Index(approveURL, "token=")+len("token="):])
	require.NoError(t, err)
	rejectClaims, err := VerifyModerationToken(rejectURL[strings.Index(rejectURL, "token=")+len("token="):])
	require.NoError(t, err)

	assert.Equal(t, "approve", approveClaims.Decision)
	assert.Equal(t, "reject", rejectClaims.Decision)
	// both links of one email share the nonce so either click spends both
	assert.Equal(t, approveClaims.Nonce, rejectClaims.Nonce)
}

func TestModerationAlertDebounce(t *testing.T) {
	assert.True(t, ModerationAlertDebounce("post", 1001, time.Minute))
	assert.False(t, ModerationAlertDebounce("post", 1001, time.Minute))
	assert.True(t, ModerationAlertDebounce("comment", 1001, time.Minute), "kinds are debounced independently")
}
