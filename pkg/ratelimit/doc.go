// Package ratelimit enforces per-user request limits for the gateway.
//
// Each user gets a budget of requests per rolling minute. Two limiter
// implementations share the Limiter interface:
//
//   - LocalLimiter counts in process memory with a sliding window per
//     key, optionally mirrored to SQLite so budgets survive restarts.
//   - RedisLimiter counts in the shared cache with an atomic fixed
//     window script, so all gateway instances see one budget per user.
//     It wraps a LocalLimiter and falls back to it whenever the cache
//     is unavailable, re-probing at a bounded rate.
//
// The factory picks the implementation from configuration: disabled
// limiting yields a nil Limiter, a configured shared cache yields the
// distributed limiter, anything else the local one.
//
// A limiter failure is never a request failure. Storage and cache
// errors degrade the limiter, they do not reject traffic.
package ratelimit
