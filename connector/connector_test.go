package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/value"
)

func eventFixture() event.KeyedDataEvent {
	return event.KeyedDataEvent{
		FromOperatorId: 1,
		Data:           []value.Entry{value.NewEntry(value.String("x"))},
	}
}

func TestFileSourceYieldsOneEntryPerLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	if err := os.WriteFile(path, []byte("a\nb\n\nc\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	gen := Resolver{}.Source("file://" + path)
	ctx := context.Background()

	var got []string
	for {
		entry, ok := gen(ctx)
		if !ok {
			break
		}
		v, err := value.DecodeOne(entry.ValueBytes)
		if err != nil {
			t.Fatalf("decoding entry: %v", err)
		}
		got = append(got, v.String)
	}

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSourceWithUnrecognizedTargetIsImmediatelyExhausted(t *testing.T) {
	gen := Resolver{}.Source("s3://bucket/key")
	if _, ok := gen(context.Background()); ok {
		t.Fatal("expected immediate exhaustion for an unsupported scheme")
	}
}

func TestSinkWithUnrecognizedTargetErrors(t *testing.T) {
	write := Resolver{}.Sink("s3://bucket/key")
	if err := write(context.Background(), eventFixture()); err == nil {
		t.Fatal("expected an error for an unsupported sink scheme")
	}
}
