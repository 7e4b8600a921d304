// Package tools defines function tools that realtime models can call
// during a conversation.
//
// A Tool pairs a JSON-schema argument description (derived from a Go type)
// with an invoke function. A Registry holds the tools of one agent and
// dispatches model function calls to them, repairing the model's
// occasionally malformed JSON arguments along the way.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// InvokeFunc handles a tool call with already-decoded arguments.
type InvokeFunc[T any] func(ctx context.Context, arg T) (any, error)

// Tool is a callable function exposed to a model.
type Tool struct {
	Name        string
	Description string

	// Parameters is the JSON schema of the arguments object.
	Parameters *jsonschema.Schema

	invoke func(ctx context.Context, args string) (any, error)
}

// ToolOption configures tool construction.
type ToolOption[ArgType any] interface {
	applyToTool(*toolConfig)
}

type toolConfig struct {
	typeSchemas map[reflect.Type]*jsonschema.Schema
}

// WithSchema overrides the generated schema for a nested type.
func WithSchema[T any](s *jsonschema.Schema) ToolOption[any] {
	return &typeSchemaOption{t: reflect.TypeFor[T](), s: s}
}

type typeSchemaOption struct {
	t reflect.Type
	s *jsonschema.Schema
}

func (o *typeSchemaOption) applyToTool(cfg *toolConfig) {
	cfg.typeSchemas[o.t] = o.s
}

// New creates a tool whose argument schema is derived from ArgType.
func New[ArgType any](name, description string, fn InvokeFunc[ArgType], opts ...ToolOption[ArgType]) (*Tool, error) {
	cfg := &toolConfig{typeSchemas: make(map[reflect.Type]*jsonschema.Schema)}
	for _, opt := range opts {
		opt.applyToTool(cfg)
	}

	params, err := jsonschema.For[ArgType](&jsonschema.ForOptions{
		TypeSchemas: cfg.typeSchemas,
	})
	if err != nil {
		return nil, fmt.Errorf("tools: schema for %s: %w", name, err)
	}

	return &Tool{
		Name:        name,
		Description: description,
		Parameters:  params,
		invoke: func(ctx context.Context, args string) (any, error) {
			var v ArgType
			if err := unmarshalJSON([]byte(args), &v); err != nil {
				return nil, fmt.Errorf("tools: %s: unmarshal %q: %w", name, args, err)
			}
			return fn(ctx, v)
		},
	}, nil
}

// Must is New that panics on error. For tools built from static types.
func Must[ArgType any](name, description string, fn InvokeFunc[ArgType], opts ...ToolOption[ArgType]) *Tool {
	tool, err := New(name, description, fn, opts...)
	if err != nil {
		panic(err)
	}
	return tool
}

// Invoke runs the tool with raw JSON arguments.
func (t *Tool) Invoke(ctx context.Context, args string) (any, error) {
	return t.invoke(ctx, args)
}

// unmarshalJSON unmarshals data into v, repairing malformed JSON on syntax
// errors. Models sometimes emit truncated or single-quoted argument
// objects.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}
