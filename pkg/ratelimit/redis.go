package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

const (
	// redisKeyPrefix namespaces limiter keys in the shared cache.
	redisKeyPrefix = "callisto:rl:"

	// acquireTimeout bounds how long a request waits for the shared
	// cache connection. The manager may still be inside its retry
	// budget on first use; requests must not stall behind it.
	acquireTimeout = 2 * time.Second

	// probeInterval is how often a degraded limiter retries the
	// shared cache. Between probes all decisions are local.
	probeInterval = 30 * time.Second
)

// fixedWindowScript implements an atomic fixed window counter.
// It handles all race conditions and TTL edge cases in a single
// Redis operation.
//
// KEYS[1] is the counter key, ARGV[1] the window in milliseconds,
// ARGV[2] the limit. Returns {1, remaining} when allowed and
// {0, ttl_ms} when over the limit.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])

	local current = redis.call('GET', key)
	if current == false then
		redis.call('SET', key, 1, 'PX', window)
		return {1, limit - 1}
	end

	local count = tonumber(current)
	if count < limit then
		local newCount = redis.call('INCR', key)
		local ttl = redis.call('PTTL', key)
		if ttl == -1 then
			redis.call('PEXPIRE', key, window)
		end
		return {1, limit - newCount}
	else
		local ttl = redis.call('PTTL', key)
		return {0, ttl}
	end
`)

// Cache supplies the shared cache connection. Satisfied by
// *cache.Manager.
type Cache interface {
	Acquire(ctx context.Context) (*redis.Client, error)
}

// RedisLimiter enforces limits against the shared cache so that all
// gateway instances count a user's requests together.
//
// Every decision runs a single Lua script against Redis. When the
// shared cache is unreachable, returns errors, or produces a malformed
// reply, the limiter enters degraded mode: decisions fall through to
// the wrapped local limiter and Redis is re-probed at most once per
// probeInterval. Requests are never failed because the shared cache
// is down.
type RedisLimiter struct {
	cache     Cache
	fallback  *LocalLimiter
	limit     int
	window    time.Duration
	logger    *logging.Logger
	collector *metrics.Collector

	degraded  atomic.Bool
	lastProbe atomic.Int64 // unix nanoseconds
}

// NewRedisLimiter creates a limiter that counts against the shared
// cache and falls back to local when the cache is unavailable.
func NewRedisLimiter(requestsPerMinute int, cache Cache, fallback *LocalLimiter, logger *logging.Logger, collector *metrics.Collector) *RedisLimiter {
	if logger == nil {
		logger = logging.Discard()
	}

	return &RedisLimiter{
		cache:     cache,
		fallback:  fallback,
		limit:     requestsPerMinute,
		window:    windowDuration,
		logger:    logger,
		collector: collector,
	}
}

// Allow records one request for key against the shared cache. In
// degraded mode the decision comes from the local fallback instead.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if key == "" {
		return Decision{}, fmt.Errorf("rate limit key is empty")
	}

	if r.degraded.Load() && !r.shouldProbe() {
		return r.allowLocal(ctx, key)
	}

	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	client, err := r.cache.Acquire(acquireCtx)
	cancel()
	if err != nil {
		r.enterDegradedMode(err)
		return r.allowLocal(ctx, key)
	}

	result, err := fixedWindowScript.Run(ctx, client,
		[]string{redisKeyPrefix + key},
		r.window.Milliseconds(), r.limit).Result()
	if err != nil {
		r.enterDegradedMode(err)
		return r.allowLocal(ctx, key)
	}

	decision, ok := r.parseDecision(result)
	if !ok {
		r.enterDegradedMode(fmt.Errorf("malformed script reply: %v", result))
		return r.allowLocal(ctx, key)
	}

	r.exitDegradedMode()

	if r.collector != nil {
		r.collector.RecordRateLimitDecision(BackendRedis, decision.Allowed)
	}
	if !decision.Allowed {
		r.logger.Debug("rate limit exceeded",
			"key", key,
			"limit", r.limit,
			"retry_after", decision.RetryAfter)
	}

	return decision, nil
}

// Close releases the local fallback. The shared cache connection is
// owned by its manager, not by the limiter.
func (r *RedisLimiter) Close() error {
	return r.fallback.Close()
}

// Degraded reports whether decisions currently fall back to the local
// limiter.
func (r *RedisLimiter) Degraded() bool {
	return r.degraded.Load()
}

// parseDecision interprets the script reply [allowed, remaining_or_ttl].
func (r *RedisLimiter) parseDecision(result interface{}) (Decision, bool) {
	vals, ok := result.([]interface{})
	if !ok || len(vals) < 2 {
		return Decision{}, false
	}

	allowed, ok := vals[0].(int64)
	if !ok {
		return Decision{}, false
	}
	second, ok := vals[1].(int64)
	if !ok {
		return Decision{}, false
	}

	if allowed == 1 {
		remaining := int(second)
		if remaining < 0 {
			remaining = 0
		}
		return Decision{
			Allowed:   true,
			Limit:     r.limit,
			Remaining: remaining,
		}, true
	}

	// Over the limit; second is the window TTL in milliseconds.
	// PTTL returns a negative value for a key without expiry.
	retryAfter := time.Duration(second) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = r.window
	}
	return Decision{
		Allowed:    false,
		Limit:      r.limit,
		RetryAfter: retryAfter,
	}, true
}

// allowLocal delegates the decision to the local fallback limiter.
func (r *RedisLimiter) allowLocal(ctx context.Context, key string) (Decision, error) {
	if r.collector != nil {
		r.collector.RecordRateLimitFallback()
	}
	return r.fallback.Allow(ctx, key)
}

// enterDegradedMode switches decisions to the local fallback. The
// transition is logged once; repeated failures while degraded stay
// quiet.
func (r *RedisLimiter) enterDegradedMode(err error) {
	r.lastProbe.Store(time.Now().UnixNano())
	if r.degraded.CompareAndSwap(false, true) {
		r.logger.Warn("shared cache unavailable, falling back to local rate limiting",
			"error", err)
	}
}

// exitDegradedMode resumes distributed limiting after a successful
// probe.
func (r *RedisLimiter) exitDegradedMode() {
	if r.degraded.CompareAndSwap(true, false) {
		r.logger.Info("shared cache recovered, resuming distributed rate limiting")
	}
}

// shouldProbe reports whether this request should retry the shared
// cache. At most one caller wins per probeInterval.
func (r *RedisLimiter) shouldProbe() bool {
	now := time.Now().UnixNano()
	last := r.lastProbe.Load()
	if now-last < probeInterval.Nanoseconds() {
		return false
	}
	return r.lastProbe.CompareAndSwap(last, now)
}
