package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the tools available to one agent.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns the named tool, or nil.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools in name order.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch invokes the named tool and returns its result as a JSON string,
// ready to be sent back to the model as a function call output.
func (r *Registry) Dispatch(ctx context.Context, name, args string) (string, error) {
	tool := r.Get(name)
	if tool == nil {
		return "", fmt.Errorf("tools: unknown tool %q", name)
	}

	result, err := tool.Invoke(ctx, args)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case nil:
		return "null", nil
	case string:
		b, _ := json.Marshal(v)
		return string(b), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("tools: %s: marshal result: %w", name, err)
		}
		return string(b), nil
	}
}
