// Package tools exposes the assistant's operations as named tools with JSON
// schemas, the shape an LLM function-calling loop registers and invokes.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"resort_concierge/internal/adapters/observability"
)

type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the argument object.
	Parameters() map[string]any
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Spec is the catalog entry of one tool.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Failure is the in-band payload of a tool that could not answer.
type Failure struct {
	Error string `json:"error"`
}

// ArgError marks a call rejected for its arguments.
type ArgError struct {
	Arg    string
	Reason string
}

func (e *ArgError) Error() string { return fmt.Sprintf("%s: %s", e.Arg, e.Reason) }

func missing(arg string) error { return &ArgError{Arg: arg, Reason: "is required"} }

var ErrUnknownTool = errors.New("unknown tool")

// inBand is implemented by payloads that carry their own error field.
type inBand interface{ ErrorMessage() string }

type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		if _, dup := r.byName[t.Name()]; dup {
			panic("tools: duplicate tool " + t.Name())
		}
		r.byName[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	sort.Strings(r.order)
	return r
}

func (r *Registry) Specs() []Spec {
	out := make([]Spec, 0, len(r.order))
	for _, n := range r.order {
		t := r.byName[n]
		out = append(out, Spec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
	}
	return out
}

// Invoke runs the named tool. Only ErrUnknownTool is returned as an error;
// every tool failure comes back as a Failure payload.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	start := time.Now()
	out, err := t.Call(ctx, args)
	outcome := "ok"
	if err != nil {
		var ae *ArgError
		if errors.As(err, &ae) {
			outcome = "bad_args"
		} else {
			outcome = "tool_error"
		}
		log.Warn().Str("tool", name).Err(err).Msg("tool call failed")
		out = Failure{Error: err.Error()}
	} else if ib, ok := out.(inBand); ok && ib.ErrorMessage() != "" {
		outcome = "tool_error"
	}
	observability.ObserveTool(name, outcome, time.Since(start))
	return out, nil
}
