// Package conversation holds per-session conversation state: the append
// only message log, the session's identity context, and the record of
// actions invoked on its behalf.
//
// Messages form a tagged variant over user input, reasoner output, and
// action results. Action results correlate back to the requested actions of
// the immediately preceding reasoner message through call IDs, and every
// requested action receives exactly one result before the reasoner is
// consulted again.
//
// A session is owned by one orchestrator turn at a time; callers serialize
// turns through LockTurn. Distinct sessions share nothing and advance
// concurrently.
package conversation
