// Package activity tracks in-flight requests per user.
//
// The tracker holds process-wide in-memory state: for every user, the set
// of currently active requests and the most recent completion. Request IDs
// are unique across the whole process, so a request can be completed by ID
// alone and a duplicate ID is rejected no matter which user owns the
// original.
//
// # Lifecycle
//
// A request enters the tracker through Begin and leaves through End, which
// records the outcome (success, failure, or timed_out) as the owning
// user's last request. Entries that are never ended are removed by the
// sweeper: a cron-scheduled job that force-completes anything older than
// the configured maximum age with a timed_out outcome.
//
// # Snapshots
//
// Snapshot returns a consistent copy of every user's activity, ordered by
// user ID, with each user's active requests ordered by start time. Within
// a single user the reported active count always equals the number of
// listed requests, even while other goroutines begin and end requests
// concurrently.
//
// # Persistence
//
// The tracker itself is purely in-memory and empty after a restart. An
// optional Archiver receives each completion as it happens; archive
// failures are logged and never surface to callers.
//
// # Example
//
//	tracker := activity.New(cfg.Activity, store, logger, collector)
//	sweeper := activity.NewSweeper(tracker, cfg.Activity, logger)
//	if err := sweeper.Start(ctx); err != nil {
//		return err
//	}
//	defer sweeper.Stop()
//
//	if err := tracker.Begin(userID, requestID, activity.Metadata{}); err != nil {
//		// duplicate request ID
//	}
//	// ... serve the request ...
//	_ = tracker.End(ctx, requestID, activity.OutcomeSuccess)
package activity
