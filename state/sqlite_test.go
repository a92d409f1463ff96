package state

import (
	"context"
	"testing"
)

func TestSQLiteStoreSetGetRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, "reduce-1", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := s.Get(ctx, "reduce-1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got) != 3 || got[1] != 2 {
		t.Errorf("unexpected value: %v", got)
	}
}

func TestSQLiteStoreGetMissingKey(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected ok=false for missing key")
	}
}

func TestSQLiteStoreSetOverwrites(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("first"))
	_ = s.Set(ctx, "k", []byte("second"))
	got, _, _ := s.Get(ctx, "k")
	if string(got) != "second" {
		t.Errorf("expected overwrite to %q, got %q", "second", got)
	}
}
