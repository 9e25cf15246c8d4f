// Package registry maps user IDs to display names for status
// responses.
//
// The directory is a YAML file listing users by ID. It is loaded once
// at boot and, when watching is enabled, reloaded automatically after
// file changes with a debounce so editor save sequences produce a
// single reload. Reload replaces the in-memory directory atomically;
// a failed reload keeps the previous directory.
//
// The registry is deliberately forgiving: a missing file is an empty
// directory and an unknown user resolves to its bare ID. Display
// names are cosmetic and must never fail a status response.
package registry
