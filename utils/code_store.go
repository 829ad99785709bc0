package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"
)

// Short-lived numeric codes: email verification at signup and password reset.
// Redis is preferred so codes survive restarts; an in-memory map is the
// fallback when Redis is unreachable.

const (
	CodePurposeVerify = "verify" // confirm email ownership at signup
	CodePurposeReset  = "reset"  // password reset, 30 minute window
)

type codeEntry struct {
	code      string
	expiresAt time.Time
}

var (
	codeStore   = map[string]codeEntry{}
	codeStoreMu sync.Mutex
)

// GenerateVerificationCode creates a numeric code with the given length.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// fallback to time based modulo if crypto fails
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

func codeKey(purpose, email string) string {
	return "code:" + purpose + ":" + email
}

// SaveCode stores a code for an email with TTL. Prefer Redis; fallback to memory.
func SaveCode(purpose, email, code string, ttl time.Duration) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, codeKey(purpose, email), code, ttl).Err(); err == nil {
			return
		}
	}
	codeStoreMu.Lock()
	codeStore[codeKey(purpose, email)] = codeEntry{code: code, expiresAt: time.Now().Add(ttl)}
	codeStoreMu.Unlock()
}

// CheckCode verifies a code without consuming it. Used by the two-step reset
// flow where the code is validated first and consumed when the new password
// is actually set.
func CheckCode(purpose, email, code string) bool {
	if code == "" {
		return false
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if val, err := rc.Get(ctx, codeKey(purpose, email)).Result(); err == nil {
			return val == code
		}
	}
	codeStoreMu.Lock()
	defer codeStoreMu.Unlock()
	entry, ok := codeStore[codeKey(purpose, email)]
	if !ok || time.Now().After(entry.expiresAt) {
		return false
	}
	return entry.code == code
}

// VerifyAndConsumeCode checks a code and consumes it if valid. Prefer Redis; fallback to memory.
func VerifyAndConsumeCode(purpose, email, code string) bool {
	if code == "" {
		return false
	}
	key := codeKey(purpose, email)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// GETDEL (Redis >= 6.2) makes check-and-consume atomic
		if val, err := rc.GetDel(ctx, key).Result(); err == nil {
			return val == code
		}
		// fallback for older servers: atomic Lua GET+DEL
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		if res, err := rc.Eval(ctx, script, []string{key}).Result(); err == nil {
			s, ok := res.(string)
			return ok && s == code
		}
		// on Redis error fall through to the memory store
	}
	codeStoreMu.Lock()
	defer codeStoreMu.Unlock()
	entry, ok := codeStore[key]
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		delete(codeStore, key)
		return false
	}
	if entry.code != code {
		return false
	}
	delete(codeStore, key)
	return true
}

// EmailCooldownTrySet sets a cooldown key for sending a code. Returns true if set, false if cooling down.
func EmailCooldownTrySet(email string, cooldown time.Duration) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := rc.SetNX(ctx, "cooldown:email:"+email, "1", cooldown).Result(); err == nil {
			return ok
		}
	}
	key := "cooldown:email:mem:" + email
	codeStoreMu.Lock()
	defer codeStoreMu.Unlock()
	if entry, ok := codeStore[key]; ok && time.Now().Before(entry.expiresAt) {
		return false
	}
	codeStore[key] = codeEntry{code: "1", expiresAt: time.Now().Add(cooldown)}
	return true
}
