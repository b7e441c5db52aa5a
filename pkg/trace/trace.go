// Package trace carries the ambient invocation context (trace id, active
// tool name, policy metadata) through call stacks explicitly. The
// reconciliation core reads this handle but never mutates it; mutation is
// the service layer's job at request entry.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// Context is the read-only telemetry handle threaded through a single
// tool invocation.
type Context struct {
	TraceID          string   `json:"trace_id"`
	Tool             string   `json:"tool,omitempty"`
	PolicyDecisionID string   `json:"policy_decision_id,omitempty"`
	MaskedFields     []string `json:"masked_fields,omitempty"`
}

// New returns a Context with a fresh trace id for the given tool name.
func New(tool string) Context {
	return Context{TraceID: uuid.NewString(), Tool: tool}
}

// Masked reports whether the given field name must be masked in any
// rendered output (reports, logs, audit payloads).
func (t Context) Masked(field string) bool {
	for _, f := range t.MaskedFields {
		if f == field {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// Into attaches tc to ctx.
func Into(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// From extracts the trace context, reporting whether one was attached.
func From(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Ensure returns the attached trace context, or mints a new one for tool
// when the caller did not supply any. Keeps the core free of nil checks.
func Ensure(ctx context.Context, tool string) (context.Context, Context) {
	if tc, ok := From(ctx); ok {
		return ctx, tc
	}
	tc := New(tool)
	return Into(ctx, tc), tc
}
