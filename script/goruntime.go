package script

import (
	"context"
	"sync"

	"github.com/flowdag/flowdag/value"
)

// UnaryFunc is a registered call_one implementation.
type UnaryFunc func(ctx context.Context, arg value.TaggedValue) value.TaggedValue

// BinaryFunc is a registered call_two implementation.
type BinaryFunc func(ctx context.Context, a, b value.TaggedValue) value.TaggedValue

// GoRuntime implements Runtime by resolving a transform body to a Go
// closure registered under that exact string ahead of time, rather than
// interpreting source text. It stands in for an embedded scripting VM in
// this implementation (see DESIGN.md): operator bodies are still plain
// strings on the wire (event.OperatorDetails.FuncBody), but GoRuntime's
// "evaluation" is a registry lookup instead of a parse-and-run.
//
// The registry is guarded by a mutex, so registration and lookup may run
// concurrently; the registered closures themselves get no such guard. Each
// operator owns a private instance (spec §5, "Runtime isolation"), built
// once at deployment time before the operator's execution task starts.
type GoRuntime struct {
	NopCloser

	mu     sync.RWMutex
	unary  map[string]UnaryFunc
	binary map[string]BinaryFunc
}

// NewGoRuntime returns an empty GoRuntime. Callers register bodies with
// RegisterUnary/RegisterBinary before the runtime is handed to an operator.
func NewGoRuntime() *GoRuntime {
	return &GoRuntime{
		unary:  make(map[string]UnaryFunc),
		binary: make(map[string]BinaryFunc),
	}
}

// RegisterUnary binds body to fn for subsequent CallOne evaluations.
func (r *GoRuntime) RegisterUnary(body string, fn UnaryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unary[body] = fn
}

// RegisterBinary binds body to fn for subsequent CallTwo evaluations.
func (r *GoRuntime) RegisterBinary(body string, fn BinaryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binary[body] = fn
}

// CallOne implements Runtime. An unregistered body, a panicking closure, or
// a cancelled context all fold to value.Invalid() — the contract never
// surfaces an error to the caller (spec §5, "Runtime evaluation").
func (r *GoRuntime) CallOne(ctx context.Context, name, body string, arg value.TaggedValue) (out value.TaggedValue) {
	if ctx.Err() != nil {
		return value.Invalid()
	}
	r.mu.RLock()
	fn, ok := r.unary[body]
	r.mu.RUnlock()
	if !ok {
		return value.Invalid()
	}
	defer func() {
		if recover() != nil {
			out = value.Invalid()
		}
	}()
	return fn(ctx, arg)
}

// CallTwo implements Runtime, with the same exception-to-Invalid folding as
// CallOne.
func (r *GoRuntime) CallTwo(ctx context.Context, name, body string, a, b value.TaggedValue) (out value.TaggedValue) {
	if ctx.Err() != nil {
		return value.Invalid()
	}
	r.mu.RLock()
	fn, ok := r.binary[body]
	r.mu.RUnlock()
	if !ok {
		return value.Invalid()
	}
	defer func() {
		if recover() != nil {
			out = value.Invalid()
		}
	}()
	return fn(ctx, a, b)
}
