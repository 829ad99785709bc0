package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/demaesdadas/aldeia/config"
)

// One-click moderation links carry a signed token instead of a session:
// HMAC-SHA256 over (kind, item id, decision, expiry, nonce) under the
// moderation secret. The approve and reject links of one email share a
// nonce, so clicking either one spends both.

const modTokenVersion = "v1"

var (
	ErrModTokenMalformed = errors.New("moderation token malformed")
	ErrModTokenSignature = errors.New("moderation token signature mismatch")
	ErrModTokenExpired   = errors.New("moderation token expired")
)

// ModTokenClaims are the verified contents of a moderation link token.
type ModTokenClaims struct {
	Kind     string
	ItemID   uint
	Decision string
	Nonce    string
	Expires  time.Time
}

// NewModerationNonce returns a fresh nonce to share across the links of one email.
func NewModerationNonce() string {
	return uuid.NewString()
}

// SignModerationToken builds a signed token authorizing one decision on one item.
func SignModerationToken(kind string, itemID uint, decision, nonce string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	payload := strings.Join([]string{modTokenVersion, kind, strconv.FormatUint(uint64(itemID), 10), decision, strconv.FormatInt(expires, 10), nonce}, "|")
	sig := signModPayload(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + base64.RawURLEncoding.EncodeToString(sig)
}

// VerifyModerationToken checks signature and expiry and returns the claims.
// Single-use enforcement is separate: see SpendModerationNonce.
func VerifyModerationToken(token string) (*ModTokenClaims, error) {
	dot := strings.IndexByte(token, '.')
	if dot <= 0 {
		return nil, ErrModTokenMalformed
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(token[:dot])
	if err != nil {
		return nil, ErrModTokenMalformed
	}
	sig, err := base64.RawURLEncoding.DecodeString(token[dot+1:])
	if err != nil {
		return nil, ErrModTokenMalformed
	}
	payload := string(payloadB)
	if !hmac.Equal(sig, signModPayload(payload)) {
		return nil, ErrModTokenSignature
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 6 || parts[0] != modTokenVersion {
		return nil, ErrModTokenMalformed
	}
	itemID, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, ErrModTokenMalformed
	}
	expUnix, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return nil, ErrModTokenMalformed
	}
	claims := &ModTokenClaims{
		Kind:     parts[1],
		ItemID:   uint(itemID),
		Decision: parts[3],
		Nonce:    parts[5],
		Expires:  time.Unix(expUnix, 0),
	}
	if time.Now().After(claims.Expires) {
		return nil, ErrModTokenExpired
	}
	return claims, nil
}

func signModPayload(payload string) []byte {
	mac := hmac.New(sha256.New, []byte(config.Get().ModerationSecret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

var (
	spentNonces   = map[string]time.Time{}
	spentNoncesMu sync.Mutex
)

// SpendModerationNonce marks a nonce used. Returns false when it was already
// spent. Redis SETNX makes this atomic across instances; memory is the
// single-instance fallback.
func SpendModerationNonce(nonce string, ttl time.Duration) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := rc.SetNX(ctx, "modlink:spent:"+nonce, "1", ttl).Result(); err == nil {
			return ok
		}
	}
	spentNoncesMu.Lock()
	defer spentNoncesMu.Unlock()
	if exp, ok := spentNonces[nonce]; ok && time.Now().Before(exp) {
		return false
	}
	spentNonces[nonce] = time.Now().Add(ttl)
	return true
}

// ModerationAlertDebounce rate-limits the moderation email for one item, so
// an author editing their text five times in a row does not page the
// moderators five times. Returns true when the alert should go out.
func ModerationAlertDebounce(kind string, itemID uint, window time.Duration) bool {
	key := fmt.Sprintf("%s:%d", kind, itemID)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := rc.SetNX(ctx, "modalert:sent:"+key, "1", window).Result(); err == nil {
			return ok
		}
	}
	spentNoncesMu.Lock()
	defer spentNoncesMu.Unlock()
	memKey := "alert:" + key
	if exp, ok := spentNonces[memKey]; ok && time.Now().Before(exp) {
		return false
	}
	spentNonces[memKey] = time.Now().Add(window)
	return true
}

// ModerationLinkPair returns ready-to-email approve and reject URLs for an item.
func ModerationLinkPair(kind string, itemID uint) (approveURL, rejectURL string) {
	cfg := config.Get()
	ttl := time.Duration(cfg.ModerationLinkTTLH) * time.Hour
	nonce := NewModerationNonce()
	approve := SignModerationToken(kind, itemID, "approve", nonce, ttl)
	reject := SignModerationToken(kind, itemID, "reject", nonce, ttl)
	base := strings.TrimRight(cfg.BaseURL, "/")
	approveURL = fmt.Sprintf("%s/api/v1/moderation/link?token=%s", base, approve)
	rejectURL = fmt.Sprintf("%s/api/v1/moderation/link?token=%s", base, reject)
	return approveURL, rejectURL
}
