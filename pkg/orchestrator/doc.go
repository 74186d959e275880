// Package orchestrator drives the policy-gated conversation loop.
//
// One turn of Advance runs the session state machine until the reasoner
// produces an answer:
//
//	DECIDE     consult the reasoner with the full message history
//	AUTHORIZE  build a decision request per requested action and ask the
//	           policy engine
//	EXECUTE    invoke the registry for allowed actions; synthesize denied
//	           results without invoking; append one result per request
//	           → back to DECIDE
//	DONE       the reasoner's final text is the answer
//
// Denials are conversational, not terminal: a denied action becomes a
// tagged result in the history, and the reasoner (not the orchestrator)
// produces the user-facing explanation on its next consultation. The only
// answer the orchestrator ever synthesizes is the incompletion answer
// forced when a turn exceeds its iteration bound.
//
// Sessions are fully independent; a turn holds its session's turn lock, so
// concurrent turns on distinct sessions never contend while two callers of
// the same session serialize.
package orchestrator
