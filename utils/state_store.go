package utils

import (
	"context"
	"sync"
	"time"
)

// Single-use token store: OAuth CSRF states and moderation link nonces share
// the same consume-once semantics. Redis GETDEL keeps consumption atomic
// across instances; the in-memory map covers single-instance deployments
// without Redis.

type onceEntry struct {
	expiresAt time.Time
}

var (
	onceStore   = map[string]onceEntry{}
	onceStoreMu sync.Mutex
)

// SaveOnceToken stores a single-use token under the given namespace with TTL.
func SaveOnceToken(namespace, token string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	key := namespace + ":" + token
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "once:"+key, "1", ttl).Err(); err == nil {
			return
		}
	}
	onceStoreMu.Lock()
	onceStore[key] = onceEntry{expiresAt: time.Now().Add(ttl)}
	onceStoreMu.Unlock()
}

// ConsumeOnceToken validates and removes a token. Returns false when the
// token is unknown, expired, or was already consumed.
func ConsumeOnceToken(namespace, token string) bool {
	key := namespace + ":" + token
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		rkey := "once:" + key
		if v, err := rc.GetDel(ctx, rkey).Result(); err == nil {
			return v != ""
		}
		// older servers: atomic Lua get+del
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		if res, err := rc.Eval(ctx, script, []string{rkey}).Result(); err == nil {
			return res != nil
		}
		// Redis error: fall through to memory
	}
	onceStoreMu.Lock()
	entry, ok := onceStore[key]
	if ok {
		delete(onceStore, key)
	}
	onceStoreMu.Unlock()
	if !ok {
		return false
	}
	return time.Now().Before(entry.expiresAt)
}

// SaveState stores an OAuth state token with TTL to mitigate CSRF.
func SaveState(state string, ttl time.Duration) {
	SaveOnceToken("oauth:state", state, ttl)
}

// ConsumeState validates and removes an OAuth state token.
func ConsumeState(state string) bool {
	return ConsumeOnceToken("oauth:state", state)
}
