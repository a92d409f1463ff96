package operator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowdag/flowdag/value"
)

func TestHTTPSinkPostsAndAcceptsOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL)
	in := newEvent(value.Number(1))
	if err := sink.Write(context.Background(), in); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestHTTPSinkErrorsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL)
	in := newEvent(value.Number(1))
	if err := sink.Write(context.Background(), in); err == nil {
		t.Fatalf("expected error on 500 status")
	}
}
