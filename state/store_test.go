package state

import (
	"context"
	"testing"
)

func TestMemStoreGetMissingKey(t *testing.T) {
	s := NewMemStore()
	_, ok, err := s.Get(context.Background(), "reduce-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing key")
	}
}

func TestMemStoreSetThenGet(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	if err := s.Set(ctx, ReduceKey(3), []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, ReduceKey(3))
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestMemStoreGetReturnsIndependentCopy(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("abc"))
	got, _, _ := s.Get(ctx, "k")
	got[0] = 'z'
	got2, _, _ := s.Get(ctx, "k")
	if string(got2) != "abc" {
		t.Errorf("mutating a Get result leaked into the store: %q", got2)
	}
}

func TestReduceKeyLayout(t *testing.T) {
	if got, want := ReduceKey(7), "reduce-7"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
