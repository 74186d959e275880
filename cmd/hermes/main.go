// Hermes is a policy-gated HR assistant.
//
// It runs a conversational loop in which an LLM reasoner proposes actions
// against an HR data store, every proposed action is authorized against a
// declarative rule set before execution, and tagged results are fed back
// into the conversation.
//
// Usage:
//
//	# Start an interactive chat as a given employee
//	hermes chat --as alex.kim@acme.com
//
//	# Start with a custom configuration file
//	hermes chat --config /path/to/config.yaml --as mina.patel@acme.com
//
//	# Validate a rule file
//	hermes rules validate --file rules.yaml
//
//	# Show version information
//	hermes version
package main

func main() {
	Execute()
}
