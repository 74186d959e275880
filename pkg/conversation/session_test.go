package conversation

import (
	"errors"
	"sync"
	"testing"

	"mercator-hq/hermes/pkg/identity"
)

var testIdentity = identity.Context{
	RequesterID:    201,
	RequesterEmail: "alex.kim@acme.com",
	RequesterRole:  identity.RoleEmployee,
}

func TestSession_AppendOnly(t *testing.T) {
	s := NewSession("s1", testIdentity)

	s.Append(NewUserMessage("hello"))
	s.Append(
		NewReasonerMessage("", []ActionRequest{{Name: "get_employee", CallID: "c1"}}),
		NewSuccessResult("c1", map[string]any{"name": "Alex Kim"}),
	)

	msgs := s.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Len = %d, want 3", len(msgs))
	}
	if msgs[0].Kind != KindUser || msgs[0].Text != "hello" {
		t.Errorf("first message = %+v, want user hello", msgs[0])
	}
	if msgs[1].Kind != KindReasoner || len(msgs[1].RequestedActions) != 1 {
		t.Errorf("second message = %+v, want reasoner with one request", msgs[1])
	}
	if msgs[2].Kind != KindActionResult || msgs[2].CallID != "c1" {
		t.Errorf("third message = %+v, want result for c1", msgs[2])
	}

	// Mutating the returned slice must not touch the log.
	msgs[0].Text = "mutated"
	if s.Messages()[0].Text != "hello" {
		t.Error("Messages() must return a copy")
	}
}

func TestSession_RecordInvocation(t *testing.T) {
	s := NewSession("s1", testIdentity)
	s.RecordInvocation("get_employee")
	s.RecordInvocation("get_holiday_balance")

	got := s.ActionsInvoked()
	if len(got) != 2 || got[0] != "get_employee" || got[1] != "get_holiday_balance" {
		t.Errorf("ActionsInvoked() = %v", got)
	}
}

func TestOutcomeConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Outcome
	}{
		{
			name: "success carries payload only",
			msg:  NewSuccessResult("c1", 42),
			want: Outcome{Status: OutcomeSuccess, Payload: 42},
		},
		{
			name: "denial carries reason only",
			msg:  NewDeniedResult("c2", "denied by rule \"x\""),
			want: Outcome{Status: OutcomeDenied, Reason: "denied by rule \"x\""},
		},
		{
			name: "failure carries error only",
			msg:  NewFailedResult("c3", errors.New("boom")),
			want: Outcome{Status: OutcomeFailed, Error: "boom"},
		},
		{
			name: "failure with nil error",
			msg:  NewFailedResult("c4", nil),
			want: Outcome{Status: OutcomeFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Kind != KindActionResult {
				t.Errorf("Kind = %q, want %q", tt.msg.Kind, KindActionResult)
			}
			if tt.msg.Outcome != tt.want {
				t.Errorf("Outcome = %+v, want %+v", tt.msg.Outcome, tt.want)
			}
		})
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore()

	s1, created := st.GetOrCreate("s1", testIdentity)
	if !created {
		t.Fatal("first GetOrCreate must create")
	}

	other := identity.Context{RequesterID: 999, RequesterRole: identity.RoleHR}
	s2, created := st.GetOrCreate("s1", other)
	if created {
		t.Fatal("second GetOrCreate must not create")
	}
	if s2 != s1 {
		t.Fatal("GetOrCreate must return the same session")
	}
	if s2.Identity.RequesterID != 201 {
		t.Error("existing session identity must not be overwritten")
	}
}

func TestStore_GeneratesID(t *testing.T) {
	st := NewStore()
	s, created := st.GetOrCreate("", testIdentity)
	if !created || s.ID == "" {
		t.Fatalf("empty ID must create a session with a generated ID, got %q", s.ID)
	}
	if got := st.Get(s.ID); got != s {
		t.Error("generated ID must be retrievable")
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	st := NewStore()
	st.GetOrCreate("a", testIdentity)
	st.GetOrCreate("b", identity.Context{RequesterID: 300, RequesterEmail: "elena.rossi@acme.com"})

	if got := st.List(""); len(got) != 2 {
		t.Errorf("List(all) = %d sessions, want 2", len(got))
	}
	if got := st.List("alex.kim@acme.com"); len(got) != 1 {
		t.Errorf("List(alex) = %d sessions, want 1", len(got))
	}

	if !st.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if st.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if st.Get("a") != nil {
		t.Error("deleted session must be gone")
	}
}

func TestStore_ConcurrentGetOrCreate(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	sessions := make([]*Session, 16)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = st.GetOrCreate("shared", testIdentity)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(sessions); i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent GetOrCreate must converge on one session")
		}
	}
}
