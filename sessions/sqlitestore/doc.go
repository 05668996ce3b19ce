// Package sqlitestore persists session state in a local SQLite file so
// logged-in browsers survive a restart of the web front.
//
// Rows are keyed by a BLAKE2b-256 hash of the session key; the raw cookie
// value never reaches disk.
package sqlitestore
