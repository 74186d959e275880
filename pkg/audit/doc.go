// Package audit records an audit trail of authorization decisions, action
// invocations, and conversation turns.
//
// Records are written asynchronously through a buffered channel so the
// orchestrator never blocks on storage. Storage backends are pluggable;
// memory and SQLite implementations are provided. A retention pruner
// deletes old records on a cron schedule.
package audit
