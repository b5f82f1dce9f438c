package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"

	"seo-agent/ai"
	"seo-agent/logging"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrDuplicateTool    = errors.New("tool already registered")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Tool is a named function the agent and the HTTP API can invoke with JSON
// arguments.
type Tool interface {
	Definition() ai.Tool
	Invoke(ctx context.Context, arguments json.RawMessage) (any, error)
}

type typedTool[In any, Out any] struct {
	definition ai.Tool
	fn         func(ctx context.Context, input In) (Out, error)
}

// NewTool adapts fn into a Tool. Arguments are decoded into In and checked
// against its `validate` struct tags before fn runs.
func NewTool[In any, Out any](name, description string, parameters map[string]any, fn func(ctx context.Context, input In) (Out, error)) Tool {
	return &typedTool[In, Out]{
		definition: ai.Tool{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
		fn: fn,
	}
}

func (t *typedTool[In, Out]) Definition() ai.Tool {
	return t.definition
}

func (t *typedTool[In, Out]) Invoke(ctx context.Context, arguments json.RawMessage) (any, error) {
	var input In
	if len(arguments) > 0 && string(arguments) != "null" {
		if err := json.Unmarshal(arguments, &input); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.definition.Name, err)
		}
	}
	if err := validate.Struct(input); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.definition.Name, err)
		}
	}
	return t.fn(ctx, input)
}

// Registry holds the tools exposed to the model, in registration order.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range tools {
		name := tool.Definition().Name
		if _, exists := r.tools[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		r.tools[name] = tool
		r.order = append(r.order, name)
	}
	return nil
}

// Tools returns every definition in registration order.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Invoke runs the named tool and returns its structured result.
func (r *Registry) Invoke(ctx context.Context, name string, arguments json.RawMessage) (any, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	r.logger.WithFields(logging.Fields{
		"tool":      name,
		"arguments": string(arguments),
	}).Debug("Invoking tool")
	return tool.Invoke(ctx, arguments)
}

// Call runs the named tool and returns its result as JSON text for the model.
func (r *Registry) Call(ctx context.Context, name, arguments string) (string, error) {
	result, err := r.Invoke(ctx, name, json.RawMessage(arguments))
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", name, err)
	}
	return string(encoded), nil
}

// toolParams builds a JSON schema object for a tool's arguments.
func toolParams(properties map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func siteParams(description string, extra map[string]any) map[string]any {
	properties := map[string]any{
		"site": map[string]any{
			"type":        "string",
			"description": description,
		},
	}
	for key, value := range extra {
		properties[key] = value
	}
	return toolParams(properties, []string{"site"})
}
