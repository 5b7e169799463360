package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitIPPrefix = "ratelimit:ip:"

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and takes one token atomically. It reads the
// clock from Redis so API replicas agree on elapsed time, and lets an idle
// bucket expire once it would be full again.
//
// Returns {allowed, retry_after_ms, remaining_tokens, full_in_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])

local t = redis.call('TIME')
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now

tokens = math.min(burst, tokens + math.max(0, now - ts) * rate / 1000)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	retry_ms = math.ceil((1 - tokens) * 1000 / rate)
end

local full_ms = math.ceil((burst - tokens) * 1000 / rate)
redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', now)
redis.call('PEXPIRE', key, full_ms + 1000)

return {allowed, retry_ms, math.floor(tokens), full_ms}
`)

// CheckIPRateLimit takes one token from the bucket of ip within scope.
// The IP is hashed before it becomes part of a key.
func (c *Cache) CheckIPRateLimit(ctx context.Context, scope, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return nil, fmt.Errorf("rate limit: rate must be positive, got %d", ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	res, err := tokenBucketScript.Run(ctx, c.client, []string{ipRateLimitKey(scope, ip)}, ratePerSecond, burst).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 4 {
		return nil, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	// Whole seconds, rounded up, for the Retry-After header.
	retry := (time.Duration(res[1])*time.Millisecond + time.Second - 1).Truncate(time.Second)
	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		ResetAt:    time.Now().Add(time.Duration(res[3]) * time.Millisecond),
		RetryAfter: retry,
	}, nil
}

// ipRateLimitKey builds the bucket key, e.g. "ratelimit:ip:export:1a2b...".
func ipRateLimitKey(scope, ip string) string {
	return rateLimitIPPrefix + scope + ":" + hashIP(ip)
}

// hashIP creates a truncated SHA256 hash of an IP address.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
