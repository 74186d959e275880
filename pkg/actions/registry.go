package actions

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Parameter describes one argument of an action schema.
type Parameter struct {
	// Name is the argument name as the reasoner emits it.
	Name string

	// Type is a human-readable type hint ("int", "string", "date", ...),
	// rendered into reasoner prompts. The registry does not enforce it.
	Type string

	// Description explains the argument to the reasoner.
	Description string

	// Required marks arguments the handler cannot default.
	Required bool
}

// Schema describes one action: its arguments and, if one argument names an
// affected employee, which one.
type Schema struct {
	// Name is the action name.
	Name string

	// Description explains what the action does.
	Description string

	// Parameters are the declared arguments.
	Parameters []Parameter

	// TargetParameter names the argument carrying the affected employee
	// ID, if any. Authorization extracts it into the identity context;
	// empty means only requester-scoped conditions can match.
	TargetParameter string
}

// Handler executes one action.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry is the consumed interface between the orchestrator and backend
// business services.
type Registry interface {
	// Schema returns the schema for an action name.
	Schema(name string) (*Schema, error)

	// Invoke executes the named action. Handler failures come back as
	// *OperationError.
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)

	// Schemas returns all registered schemas sorted by name, for prompt
	// rendering and introspection.
	Schemas() []*Schema
}

// entry pairs a schema with its handler.
type entry struct {
	schema  *Schema
	handler Handler
}

// Map is an in-process Registry backed by a mutex-guarded map.
type Map struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMap creates an empty registry.
func NewMap() *Map {
	return &Map{entries: make(map[string]entry)}
}

// Register adds an action. Registering a name twice is an error.
func (m *Map) Register(schema *Schema, handler Handler) error {
	if schema == nil || schema.Name == "" {
		return fmt.Errorf("schema with a non-empty name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[schema.Name]; ok {
		return &DuplicateError{Action: schema.Name}
	}
	m.entries[schema.Name] = entry{schema: schema, handler: handler}
	return nil
}

// Schema implements Registry.
func (m *Map) Schema(name string) (*Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, &NotFoundError{Action: name}
	}
	return e.schema, nil
}

// Invoke implements Registry.
func (m *Map) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Action: name}
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return nil, &OperationError{Action: name, Cause: err}
	}
	return result, nil
}

// Schemas implements Registry.
func (m *Map) Schemas() []*Schema {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Schema, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TargetID extracts the affected employee ID from the arguments according
// to the schema's target parameter. Reasoner output round-trips through
// JSON, so numbers arrive as float64; integer and string forms are
// accepted too.
func TargetID(schema *Schema, args map[string]any) (int64, bool) {
	if schema == nil || schema.TargetParameter == "" {
		return 0, false
	}
	v, ok := args[schema.TargetParameter]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
