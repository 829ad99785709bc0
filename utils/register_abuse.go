package utils

import (
	"context"
	"time"

	"github.com/demaesdadas/aldeia/config"
)

// Per-IP registration hardening backed by Redis. All checks fail open when
// Redis is unavailable: signup must not break because the cache is down.

func regKey(parts ...string) string {
	out := "reg"
	for _, p := range parts {
		out += ":" + p
	}
	return out
}

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := GetRedis().SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := GetRedis().Get(ctx, regKey("succday", ip, time.Now().Format("20060102"))).Int()
	if err != nil {
		return true
	}
	return n < limit
}

// RegistrationMarkSuccess increments the per-day success counter for an IP.
func RegistrationMarkSuccess(ip string) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := regKey("succday", ip, time.Now().Format("20060102"))
	rc := GetRedis()
	if err := rc.Incr(ctx, key).Err(); err == nil {
		rc.Expire(ctx, key, 26*time.Hour)
	}
}

// RegistrationMarkFailure counts a failed attempt and temp-bans the IP once
// the hourly threshold is crossed.
func RegistrationMarkFailure(ip string) {
	cfg := config.Get()
	if cfg.RegisterFailedMaxPerIPPerHour <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	rc := GetRedis()
	key := regKey("failhour", ip, time.Now().Format("2006010215"))
	n, err := rc.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	rc.Expire(ctx, key, time.Hour)
	if int(n) >= cfg.RegisterFailedMaxPerIPPerHour {
		rc.Set(ctx, regKey("ban", ip), "1", time.Duration(cfg.RegisterTempBanMinutes)*time.Minute)
	}
}

// RegistrationIsBanned reports whether the IP is under a temporary ban.
func RegistrationIsBanned(ip string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	n, err := GetRedis().Exists(ctx, regKey("ban", ip)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
