package operator

import (
	"context"
	"testing"

	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/value"
)

func TestFlatMapExpandsArraysAndDropsOthers(t *testing.T) {
	rt := script.NewGoRuntime()
	rt.RegisterUnary("split", func(ctx context.Context, arg value.TaggedValue) value.TaggedValue {
		if arg.Number < 0 {
			return value.Invalid()
		}
		return value.Array([]value.TaggedValue{arg, arg})
	})
	fm := &FlatMap{OperatorID: 2, Runtime: rt, FuncBody: "split"}

	in := newEvent(value.Number(1), value.Number(-1), value.Number(2))
	out, err := fm.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one concatenated output event, got %d", len(out))
	}
	if len(out[0].Data) != 4 {
		t.Fatalf("expected 4 entries (2 from first, 0 from second, 2 from third), got %d", len(out[0].Data))
	}
}
