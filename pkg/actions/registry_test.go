package actions

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func echoHandler(_ context.Context, args map[string]any) (any, error) {
	return args, nil
}

func TestMap_Register(t *testing.T) {
	m := NewMap()

	schema := &Schema{Name: "get_employee", TargetParameter: "employee_id"}
	if err := m.Register(schema, echoHandler); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	var dup *DuplicateError
	err := m.Register(&Schema{Name: "get_employee"}, echoHandler)
	if !errors.As(err, &dup) {
		t.Errorf("duplicate Register() error = %v, want *DuplicateError", err)
	}

	if err := m.Register(nil, echoHandler); err == nil {
		t.Error("Register(nil) should error")
	}
	if err := m.Register(&Schema{}, echoHandler); err == nil {
		t.Error("Register(empty name) should error")
	}
}

func TestMap_SchemaAndInvoke(t *testing.T) {
	m := NewMap()
	if err := m.Register(&Schema{Name: "ok"}, echoHandler); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(&Schema{Name: "boom"}, func(context.Context, map[string]any) (any, error) {
		return nil, fmt.Errorf("store offline")
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Schema("ok"); err != nil {
		t.Errorf("Schema(ok) error = %v", err)
	}

	var notFound *NotFoundError
	if _, err := m.Schema("nope"); !errors.As(err, &notFound) {
		t.Errorf("Schema(nope) error = %v, want *NotFoundError", err)
	}
	if _, err := m.Invoke(context.Background(), "nope", nil); !errors.As(err, &notFound) {
		t.Errorf("Invoke(nope) error = %v, want *NotFoundError", err)
	}

	got, err := m.Invoke(context.Background(), "ok", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("Invoke(ok) error = %v", err)
	}
	if got.(map[string]any)["a"] != 1 {
		t.Errorf("Invoke(ok) = %v", got)
	}

	var opErr *OperationError
	_, err = m.Invoke(context.Background(), "boom", nil)
	if !errors.As(err, &opErr) {
		t.Fatalf("Invoke(boom) error = %v, want *OperationError", err)
	}
	if opErr.Action != "boom" {
		t.Errorf("OperationError.Action = %q, want boom", opErr.Action)
	}
}

func TestMap_SchemasSorted(t *testing.T) {
	m := NewMap()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := m.Register(&Schema{Name: name}, echoHandler); err != nil {
			t.Fatal(err)
		}
	}

	schemas := m.Schemas()
	want := []string{"alpha", "mid", "zeta"}
	for i, s := range schemas {
		if s.Name != want[i] {
			t.Errorf("Schemas()[%d] = %q, want %q", i, s.Name, want[i])
		}
	}
}

func TestTargetID(t *testing.T) {
	schema := &Schema{Name: "get_employee", TargetParameter: "employee_id"}

	tests := []struct {
		name   string
		schema *Schema
		args   map[string]any
		wantID int64
		wantOK bool
	}{
		{
			name:   "json number",
			schema: schema,
			args:   map[string]any{"employee_id": float64(204)},
			wantID: 204,
			wantOK: true,
		},
		{
			name:   "int64",
			schema: schema,
			args:   map[string]any{"employee_id": int64(204)},
			wantID: 204,
			wantOK: true,
		},
		{
			name:   "int",
			schema: schema,
			args:   map[string]any{"employee_id": 204},
			wantID: 204,
			wantOK: true,
		},
		{
			name:   "numeric string",
			schema: schema,
			args:   map[string]any{"employee_id": "204"},
			wantID: 204,
			wantOK: true,
		},
		{
			name:   "non-numeric string",
			schema: schema,
			args:   map[string]any{"employee_id": "alex"},
			wantOK: false,
		},
		{
			name:   "argument absent",
			schema: schema,
			args:   map[string]any{"other": 1},
			wantOK: false,
		},
		{
			name:   "nil value",
			schema: schema,
			args:   map[string]any{"employee_id": nil},
			wantOK: false,
		},
		{
			name:   "no target parameter declared",
			schema: &Schema{Name: "search_employee"},
			args:   map[string]any{"employee_id": float64(204)},
			wantOK: false,
		},
		{
			name:   "nil schema",
			schema: nil,
			args:   map[string]any{"employee_id": float64(204)},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := TargetID(tt.schema, tt.args)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("TargetID() = (%d, %v), want (%d, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
