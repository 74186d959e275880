package reasoner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
)

// systemPromptHeader instructs the model on the JSON decision protocol.
// The model has no knowledge of backend data and must go through actions
// for every fact; denials and failures arrive as tagged results it has to
// explain to the user rather than paper over.
const systemPromptHeader = `You are an assistant for employees. You answer questions and perform tasks by requesting named actions; you have no knowledge of employee data yourself and must never invent any.

Respond with a single JSON object, no markdown, in exactly one of two forms:

  {"final_answer": "<text for the user>"}
  {"actions": [{"name": "<action name>", "arguments": {…}}]}

Rules:
- Use actions to retrieve every fact before answering. Never answer a data question without an action result in the conversation.
- When the user says "my" or "I", use their employee ID from the identity block.
- Action results are tagged: "success" carries data; "denied" means authorization refused the action, so explain the denial to the user and suggest what they can do instead; "failed" means the operation errored, so tell the user plainly. Never present a denied or failed result as data.
- When you have what you need, reply with final_answer.`

// renderMessages renders the system prompt, identity block, and history
// into chat messages. maxHistory caps the rendered history (0 = all).
func renderMessages(history []conversation.Message, ic identity.Context, schemas []*actions.Schema, maxHistory int) []chatMessage {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nCurrent date: ")
	b.WriteString(time.Now().Format("2006-01-02"))
	b.WriteString("\n\nIdentity:\n")
	fmt.Fprintf(&b, "  employee_id: %d\n  role: %s\n", ic.RequesterID, ic.RequesterRole)
	b.WriteString("\nAvailable actions:\n")
	for _, s := range schemas {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
		for _, p := range s.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}

	msgs := []chatMessage{{Role: "system", Content: b.String()}}

	if maxHistory > 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, m := range history {
		msgs = append(msgs, renderHistoryMessage(m))
	}
	return msgs
}

// renderHistoryMessage maps one log entry to a chat message. Action results
// are fed back as user-role messages carrying the tagged outcome, so the
// model sees denials and failures exactly as the log recorded them.
func renderHistoryMessage(m conversation.Message) chatMessage {
	switch m.Kind {
	case conversation.KindUser:
		return chatMessage{Role: "user", Content: m.Text}

	case conversation.KindReasoner:
		if len(m.RequestedActions) > 0 {
			reqs := make([]wireAction, len(m.RequestedActions))
			for i, r := range m.RequestedActions {
				reqs[i] = wireAction{Name: r.Name, Arguments: r.Arguments, CallID: r.CallID}
			}
			content, _ := json.Marshal(wireDecision{Actions: reqs})
			return chatMessage{Role: "assistant", Content: string(content)}
		}
		content, _ := json.Marshal(wireDecision{FinalAnswer: m.Text})
		return chatMessage{Role: "assistant", Content: string(content)}

	default: // KindActionResult
		result := map[string]any{
			"call_id": m.CallID,
			"status":  string(m.Outcome.Status),
		}
		switch m.Outcome.Status {
		case conversation.OutcomeSuccess:
			result["payload"] = m.Outcome.Payload
		case conversation.OutcomeDenied:
			result["reason"] = m.Outcome.Reason
		case conversation.OutcomeFailed:
			result["error"] = m.Outcome.Error
		}
		content, _ := json.Marshal(result)
		return chatMessage{Role: "user", Content: "Action result: " + string(content)}
	}
}

// wireAction is the model-facing action request shape.
type wireAction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
}

// wireDecision is the model-facing decision shape.
type wireDecision struct {
	FinalAnswer string       `json:"final_answer,omitempty"`
	Actions     []wireAction `json:"actions,omitempty"`
}

// parseDecision parses the model's reply. Output that is not valid
// protocol JSON is treated as a final answer rather than an error: models
// drift into prose, and prose is still an answer. Missing call IDs are
// assigned from newID so every request is correlatable.
func parseDecision(content string, newID func() string) Decision {
	trimmed := strings.TrimSpace(content)
	// Tolerate fenced output.
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var wire wireDecision
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		return FinalAnswer(content)
	}

	if len(wire.Actions) > 0 {
		reqs := make([]conversation.ActionRequest, len(wire.Actions))
		for i, a := range wire.Actions {
			id := a.CallID
			if id == "" {
				id = newID()
			}
			reqs[i] = conversation.ActionRequest{Name: a.Name, Arguments: a.Arguments, CallID: id}
		}
		return RequestActions(reqs...)
	}
	if wire.FinalAnswer != "" {
		return FinalAnswer(wire.FinalAnswer)
	}
	return FinalAnswer(content)
}
