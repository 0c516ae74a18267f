// Package session persists calculator sessions in SQLite.
//
// A session belongs to a principal, the opaque user identifier supplied by
// the gateway in front of the API. Variables, programs, graphs and history
// rows hang off a session and are deleted with it. Every operation takes the
// principal and reports a session owned by someone else exactly like a
// missing one, with an error matching ErrNotFound.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: cascading deletes
//
// The schema is embedded and upgraded through PRAGMA user_version.
//
// Recorder writes history and graph rows off the request path through a
// bounded queue. Records that do not fit are dropped with a warning.
package session
