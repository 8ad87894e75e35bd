// Package statedb provides durable event journals for the image registry.
//
// The registry is event sourced: each committed mutation is appended to an
// interfaces.EventJournal before it becomes visible, and the in-memory state
// is rebuilt by replaying the journal on start. The journal also serves as
// the queryable history of registry notifications.
//
// Journals are selected by URI:
//
//   - memory:// - in-process journal, lost on exit
//   - sqlite:///path/to/registry.db - SQLite database with schema migrations
//   - bolt:///path/to/registry.db - bbolt key/value file
package statedb
