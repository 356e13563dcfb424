package agent

import (
	"fmt"
	"sort"

	"tripagent/llm"
)

// Registry is the fixed catalog of tools available to the agent. It is
// built once at startup and read-only afterwards, so it is safe to share
// across concurrent turns without locking.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry builds a registry from the given tools. Duplicate names are
// a startup error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Name()
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.tools[name] = t
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the named tool, or false when it is not registered.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all tool names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Schemas returns the tool catalog in the shape the model gateway sends
// to a provider.
func (r *Registry) Schemas() []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, 0, len(r.names))
	for _, name := range r.names {
		t := r.tools[name]
		schemas = append(schemas, llm.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
