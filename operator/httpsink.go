package operator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/flowdag/flowdag/event"
)

// HTTPSink posts each outgoing KeyedDataEvent as a JSON body to a
// connector endpoint, one concrete Sink.Write implementation among
// possibly many. Adapted from the teacher's HTTP tool (graph/tool/http.go):
// the same "build a context-aware request, check the status code, surface
// a wrapped error" shape, applied to "deliver this event" instead of
// "call this tool and parse the result".
type HTTPSink struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPSink returns an HTTPSink posting to endpoint with a default HTTP
// client (request timeout is expected to come from the caller's context).
func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{Endpoint: endpoint, Client: &http.Client{}}
}

// Write implements the func signature Sink.Write expects.
func (h *HTTPSink) Write(ctx context.Context, in event.KeyedDataEvent) error {
	body, err := json.Marshal(wireEventOf(in))
	if err != nil {
		return fmt.Errorf("operator: httpsink: encoding event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("operator: httpsink: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("operator: httpsink: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("operator: httpsink: endpoint %s returned status %d: %s", h.Endpoint, resp.StatusCode, respBody)
	}
	return nil
}

// wireEvent is the JSON shape posted to a sink endpoint — deliberately
// flatter than event.KeyedDataEvent, which carries Entry's raw
// already-encoded ValueBytes rather than a JSON-friendly representation.
type wireEvent struct {
	JobID          string `json:"job_id"`
	FromOperatorID int    `json:"from_operator_id"`
	EntryCount     int    `json:"entry_count"`
}

func wireEventOf(in event.KeyedDataEvent) wireEvent {
	return wireEvent{
		JobID:          in.JobId.String(),
		FromOperatorID: in.FromOperatorId,
		EntryCount:     len(in.Data),
	}
}
