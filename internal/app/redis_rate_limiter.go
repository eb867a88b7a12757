package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanWindowScript counts a hit in the current fixed window and reports how
// long the window has left. The expiry is set only by the first hit in the
// window, so the window does not slide.
var scanWindowScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisScanRateLimiter throttles scan traffic with a fixed window kept in
// Redis, so the limit holds across API replicas.
type RedisScanRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisScanRateLimiter(client redis.UniversalClient, prefix string) *RedisScanRateLimiter {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = "pileta:rate_limit"
	}
	return &RedisScanRateLimiter{client: client, prefix: p}
}

// ConsumeRateLimit counts one hit against the subject's current window and
// returns the running count plus how many seconds until the window resets.
// A nil limiter, a non-positive limit, or a blank scope/subject disables
// throttling for the call.
func (r *RedisScanRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}
	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return 0, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := r.prefix + ":" + scope + ":" + subject
	reply, err := scanWindowScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}
	return parseScanWindowReply(reply, windowMs)
}

// parseScanWindowReply unpacks the {hits, ttl} pair the window script
// returns. A negative ttl means the key carried no expiry (PTTL -1) or
// expired between the two calls (PTTL -2); either way the full window is
// assumed so the caller never waits less than it should.
func parseScanWindowReply(reply interface{}, windowMs int64) (int, int, error) {
	pair, ok := reply.([]interface{})
	if !ok || len(pair) != 2 {
		return 0, 0, fmt.Errorf("redis limiter returned %T, want {hits, ttl}", reply)
	}
	hits, hitsOK := pair[0].(int64)
	ttlMs, ttlOK := pair[1].(int64)
	if !hitsOK || !ttlOK {
		return 0, 0, fmt.Errorf("redis limiter returned {%T, %T}, want two integers", pair[0], pair[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}
	retryAfter := int((ttlMs + 999) / 1000)
	if retryAfter < 1 {
		retryAfter = 1
	}
	return int(hits), retryAfter, nil
}
