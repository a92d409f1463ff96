package operator

import (
	"context"
	"testing"

	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

func TestFilterKeepsOnlyBooleanTrue(t *testing.T) {
	rt := script.NewGoRuntime()
	rt.RegisterUnary("even", func(ctx context.Context, arg value.TaggedValue) value.TaggedValue {
		return value.Boolean(int(arg.Number)%2 == 0)
	})
	f := &Filter{OperatorID: 1, Runtime: rt, FuncBody: "even"}

	in := newEvent(value.Number(1), value.Number(2), value.Number(3), value.Number(4))
	out, err := f.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected exactly one output event, got %d", len(out))
	}
	if len(out[0].Data) != 2 {
		t.Fatalf("expected 2 surviving entries, got %d", len(out[0].Data))
	}
}

func TestFilterDropsOnNonBooleanOrInvalid(t *testing.T) {
	rt := script.NewGoRuntime()
	rt.RegisterUnary("bad", func(ctx context.Context, arg value.TaggedValue) value.TaggedValue {
		return value.Number(1) // not a Boolean
	})
	f := &Filter{OperatorID: 1, Runtime: rt, FuncBody: "bad"}

	in := newEvent(value.Number(1))
	out, err := f.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || len(out[0].Data) != 0 {
		t.Fatalf("expected one event with empty data, got %+v", out)
	}
}

func TestFilterDropsUnregisteredBodyAsInvalid(t *testing.T) {
	rt := script.NewGoRuntime()
	f := &Filter{OperatorID: 1, Runtime: rt, FuncBody: "never registered"}

	in := newEvent(value.Number(1))
	out, _ := f.Process(context.Background(), in)
	if len(out[0].Data) != 0 {
		t.Fatalf("expected Invalid result to drop entry, got %+v", out[0].Data)
	}
}
