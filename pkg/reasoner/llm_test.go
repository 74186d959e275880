package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/identity"
)

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestRegistry(t *testing.T) *actions.Map {
	t.Helper()
	m := actions.NewMap()
	err := m.Register(&actions.Schema{
		Name:            "get_holiday_balance",
		Description:     "Read an employee's holiday balance",
		TargetParameter: "employee_id",
		Parameters: []actions.Parameter{
			{Name: "employee_id", Type: "int", Required: true, Description: "the employee"},
		},
	}, func(context.Context, map[string]any) (any, error) { return nil, nil })
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewLLM_Validation(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := NewLLM(LLMConfig{Model: "m"}, reg, nil); err == nil {
		t.Error("missing base URL should error")
	}
	if _, err := NewLLM(LLMConfig{BaseURL: "http://x"}, reg, nil); err == nil {
		t.Error("missing model should error")
	}
	l, err := NewLLM(LLMConfig{BaseURL: "http://x", Model: "m"}, reg, nil)
	if err != nil {
		t.Fatalf("NewLLM() error = %v", err)
	}
	if l.config.Timeout != 60*time.Second {
		t.Errorf("default timeout = %v, want 60s", l.config.Timeout)
	}
}

func TestLLM_Decide(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(completionBody(`{"actions": [{"name": "get_holiday_balance", "arguments": {"employee_id": 201}}]}`)))
	}))
	defer srv.Close()

	l, err := NewLLM(LLMConfig{BaseURL: srv.URL, APIKey: "secret", Model: "test-model"}, newTestRegistry(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	history := []conversation.Message{conversation.NewUserMessage("how much holiday do I have?")}
	ic := identity.Context{RequesterID: 201, RequesterRole: identity.RoleEmployee}

	d, err := l.Decide(context.Background(), history, ic)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Kind != KindRequestedActions || len(d.Requested) != 1 {
		t.Fatalf("Decide() = %+v", d)
	}
	if d.Requested[0].Name != "get_holiday_balance" {
		t.Errorf("requested %q", d.Requested[0].Name)
	}
	if d.Requested[0].CallID == "" {
		t.Error("call ID must be assigned")
	}

	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("rendered %d messages, want system + user", len(gotReq.Messages))
	}
	system := gotReq.Messages[0].Content
	if !strings.Contains(system, "employee_id: 201") {
		t.Error("system prompt must carry the identity block")
	}
	if !strings.Contains(system, "get_holiday_balance") {
		t.Error("system prompt must list the action schemas")
	}
}

func TestLLM_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody(`{"final_answer": "ok"}`)))
	}))
	defer srv.Close()

	l, err := NewLLM(LLMConfig{BaseURL: srv.URL, Model: "m", MaxRetries: 2}, newTestRegistry(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	d, err := l.Decide(context.Background(), nil, identity.Context{})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Answer != "ok" {
		t.Errorf("Answer = %q", d.Answer)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestLLM_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	l, err := NewLLM(LLMConfig{BaseURL: srv.URL, Model: "m", MaxRetries: 3}, newTestRegistry(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Decide(context.Background(), nil, identity.Context{})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Decide() error = %v, want *UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", upstream.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls.Load())
	}
}

func TestLLM_TimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(completionBody(`{"final_answer": "too late"}`)))
	}))
	defer srv.Close()

	l, err := NewLLM(LLMConfig{BaseURL: srv.URL, Model: "m", Timeout: 50 * time.Millisecond}, newTestRegistry(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Decide(context.Background(), nil, identity.Context{})
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Decide() error = %v, want *TimeoutError", err)
	}
	if timeout.Timeout != 50*time.Millisecond {
		t.Errorf("Timeout = %v", timeout.Timeout)
	}
}

func TestRenderMessages_HistoryCap(t *testing.T) {
	history := []conversation.Message{
		conversation.NewUserMessage("one"),
		conversation.NewReasonerMessage("answer one", nil),
		conversation.NewUserMessage("two"),
	}

	msgs := renderMessages(history, identity.Context{RequesterID: 1}, nil, 2)
	// System message plus the two newest history entries.
	if len(msgs) != 3 {
		t.Fatalf("rendered %d messages, want 3", len(msgs))
	}
	if msgs[1].Content != "answer one" && !strings.Contains(msgs[1].Content, "answer one") {
		t.Errorf("oldest surviving message = %q", msgs[1].Content)
	}
	if msgs[2].Content != "two" {
		t.Errorf("newest message = %q", msgs[2].Content)
	}
}

func TestRenderHistoryMessage_TaggedResults(t *testing.T) {
	tests := []struct {
		name string
		msg  conversation.Message
		want []string
	}{
		{
			name: "success feeds payload",
			msg:  conversation.NewSuccessResult("c1", map[string]any{"total_days": 25}),
			want: []string{`"status":"success"`, `"total_days":25`},
		},
		{
			name: "denial feeds reason",
			msg:  conversation.NewDeniedResult("c2", "denied by rule"),
			want: []string{`"status":"denied"`, `"reason":"denied by rule"`},
		},
		{
			name: "failure feeds error",
			msg:  conversation.NewFailedResult("c3", errors.New("store offline")),
			want: []string{`"status":"failed"`, `"error":"store offline"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := renderHistoryMessage(tt.msg)
			if rendered.Role != "user" {
				t.Errorf("Role = %q, want user", rendered.Role)
			}
			for _, fragment := range tt.want {
				if !strings.Contains(rendered.Content, fragment) {
					t.Errorf("Content = %q, missing %q", rendered.Content, fragment)
				}
			}
		})
	}
}
