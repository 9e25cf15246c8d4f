// Mercator Callisto is the operations core of an API platform node.
//
// It tracks per-user in-flight request activity and exposes an
// authenticated status API, providing:
//   - Per-user activity tracking with a safety sweep for abandoned requests
//   - Distributed rate limiting through a shared Redis-compatible cache,
//     degrading to local enforcement when the cache is unavailable
//   - Persistent request history in SQLite
//   - A production startup guard that refuses traffic until the database
//     is reachable and migrated
//
// Usage:
//
//	# Start the gateway with default configuration
//	callisto run
//
//	# Start with custom configuration file
//	callisto run --config /path/to/config.yaml
//
//	# Apply database migrations out-of-band
//	callisto migrate
//
//	# Check a configuration file
//	callisto validate
//
//	# Query persisted request history
//	callisto history --user alice --limit 20
//
//	# Show version information
//	callisto version
package main

func main() {
	Execute()
}
