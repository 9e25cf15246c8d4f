// Package cache manages the optional connection to a shared
// Redis-compatible store used for cross-instance coordination.
//
// # Overview
//
// The gateway treats the shared cache as a best-effort dependency: when it
// is disabled, unconfigured, or unreachable, every feature that would use
// it degrades to a local, per-instance implementation. The Manager makes
// that contract explicit with three distinct answers to Acquire:
//
//   - a usable *redis.Client
//   - ErrDisabled: feature flag off or no endpoint configured
//   - ErrUnavailable: the retry budget is exhausted for this process
//
// # Connection lifecycle
//
// The connection is created lazily on the first Acquire call. One dial
// sequence runs per process, shared by all concurrent callers. Each
// attempt dials and verifies the connection with PING under the configured
// dial timeout. On failure the sequence retries up to five times with
// linear backoff (200ms, 400ms, 600ms, 800ms, 1000ms). Six consecutive
// failures exhaust the budget and the manager enters StateFailed for the
// remainder of the process lifetime: later calls fail fast with
// ErrUnavailable and no further connection attempts are made.
//
// There is no offline buffering. Operations against a cache that is not
// connected fail immediately at the caller.
//
// # Usage
//
//	manager := cache.New(cfg.Cache, logger, collector)
//
//	client, err := manager.Acquire(ctx)
//	switch {
//	case errors.Is(err, cache.ErrDisabled):
//	    // run with local behavior
//	case errors.Is(err, cache.ErrUnavailable):
//	    // run with local behavior, cache gone for this process
//	case err != nil:
//	    // caller context canceled while connecting
//	default:
//	    // use client
//	}
//
//	defer manager.Shutdown(ctx)
package cache
