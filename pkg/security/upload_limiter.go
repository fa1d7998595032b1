package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"securechain-api/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
)

// UploadLimiter caps audit documentation uploads using a Redis sliding window:
// per client IP per hour and per contact email per day
type UploadLimiter struct {
	maxPerHour int // Max uploads per hour per IP
	maxPerDay  int // Max uploads per day per email
}

// Lua script for sliding window rate limiting
// KEYS[1] = rate limit key
// ARGV[1] = max count allowed
// ARGV[2] = window size in seconds
// ARGV[3] = current timestamp
// Returns: 1 if allowed, 0 if rate limited
const uploadRateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

-- Remove expired entries outside the window
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local count = redis.call('ZCARD', key)
if count >= limit then
    return 0
end

-- Add new entry with unique member
redis.call('ZADD', key, now, now .. '-' .. math.random(1000000))
redis.call('EXPIRE', key, window)
return 1
`

// NewUploadLimiter creates an upload rate limiter.
// Default: 10 uploads/hour per IP, 20 uploads/day per email
func NewUploadLimiter(perHour, perDay int) *UploadLimiter {
	if perHour <= 0 {
		perHour = 10
	}
	if perDay <= 0 {
		perDay = 20
	}
	return &UploadLimiter{
		maxPerHour: perHour,
		maxPerDay:  perDay,
	}
}

// AllowUpload checks if an upload is allowed.
// Returns (allowed, retryAfterSeconds, error). Without Redis it fails open
// and reports why; on Redis errors it fails closed.
func (ul *UploadLimiter) AllowUpload(ctx context.Context, ip, email string) (bool, int, error) {
	client := redis.Client()
	if client == nil {
		return true, 0, fmt.Errorf("upload limiter unavailable - Redis not connected")
	}

	now := time.Now().Unix()

	ipKey := fmt.Sprintf("ratelimit:upload:ip:%s", ip)
	allowed, err := ul.checkLimit(ctx, client, ipKey, ul.maxPerHour, 3600, now)
	if err != nil {
		return false, 60, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		return false, 3600, nil
	}

	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		emailKey := fmt.Sprintf("ratelimit:upload:email:%s", HashValue(email))
		allowed, err = ul.checkLimit(ctx, client, emailKey, ul.maxPerDay, 86400, now)
		if err != nil {
			return false, 3600, fmt.Errorf("rate limit check failed: %w", err)
		}
		if !allowed {
			return false, 86400, nil
		}
	}

	return true, 0, nil
}

// checkLimit performs the atomic sliding window rate limit check
func (ul *UploadLimiter) checkLimit(ctx context.Context, client *goredis.Client, key string, limit, window int, now int64) (bool, error) {
	result, err := client.Eval(ctx, uploadRateLimitScript, []string{key}, limit, window, now).Result()
	if err != nil {
		return false, err
	}
	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script")
	}
	return allowed == 1, nil
}
