// Package tool defines the callable operations that domain handlers expose
// to the orchestrator, the MCP server and the CLI.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/site-assistant/internal/apperr"
)

// Tool is a named operation with a JSON schema for its arguments.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Func adapts a function to Tool.
type Func struct {
	name        string
	description string
	schema      map[string]any
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// New returns a Tool backed by fn.
func New(name, description string, schema map[string]any, fn func(ctx context.Context, args json.RawMessage) (any, error)) *Func {
	return &Func{name: name, description: description, schema: schema, fn: fn}
}

// Typed returns a Tool whose arguments are decoded into T before fn runs.
// Malformed arguments are a validation error.
func Typed[T any](name, description string, schema map[string]any, fn func(ctx context.Context, args T) (any, error)) *Func {
	return New(name, description, schema, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, apperr.Validation(name, "arguments", "invalid arguments: "+err.Error())
			}
		}
		return fn(ctx, args)
	})
}

func (f *Func) Name() string           { return f.name }
func (f *Func) Description() string    { return f.description }
func (f *Func) Schema() map[string]any { return f.schema }

func (f *Func) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return f.fn(ctx, args)
}

// Result is the uniform envelope returned to callers of a tool.
type Result struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    apperr.Kind `json:"kind,omitempty"`
}

// JSON renders the result as indented JSON.
func (r Result) JSON() string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(b)
}

// Run calls t and wraps the outcome in a Result. Panics inside the tool
// become internal errors.
func Run(ctx context.Context, t Tool, args json.RawMessage) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Error: fmt.Sprintf("%s panicked: %v", t.Name(), r), Kind: apperr.KindInternal}
		}
	}()
	data, err := t.Call(ctx, args)
	if err != nil {
		return Result{Error: err.Error(), Kind: apperr.KindOf(err)}
	}
	return Result{Success: true, Data: data}
}

// Registry is an ordered set of tools keyed by name.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry returns a registry holding tools. Later duplicates replace
// earlier ones.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.Register(tools...)
	return r
}

// Register adds tools to the registry.
func (r *Registry) Register(tools ...Tool) {
	for _, t := range tools {
		if _, ok := r.tools[t.Name()]; !ok {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n])
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Call runs the named tool. An unknown name is a not-found error.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) Result {
	t, ok := r.tools[name]
	if !ok {
		err := apperr.NotFound("tool.Call", "tool", name)
		return Result{Error: err.Error(), Kind: apperr.KindNotFound}
	}
	return Run(ctx, t, args)
}

// Describe lists tool names with their descriptions, one per line.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, t := range r.List() {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	return b.String()
}
