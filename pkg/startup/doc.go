// Package startup gates boot on database readiness.
//
// The guard runs exactly once during boot, only in production mode with
// auto-migration enabled, and strictly before the HTTP listener starts. It
// probes database reachability within a bounded timeout and then applies
// pending schema migrations. There are exactly two terminal outcomes: the
// database is ready and traffic may start, or the run command exits
// non-zero. There is no retry loop and no background reconciliation.
package startup
