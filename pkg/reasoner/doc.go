// Package reasoner defines the decision-maker interface the orchestrator
// drives, plus two implementations: an LLM-backed reasoner speaking the
// OpenAI-compatible chat completions protocol, and a scripted reasoner for
// tests and offline use.
//
// A reasoner reads the full conversation history and returns a tagged
// decision: either a terminal answer for the user, or an ordered batch of
// requested actions. The orchestrator treats the reasoner as opaque: it
// never inspects prompts or model output shape, only the Decision variant.
package reasoner
