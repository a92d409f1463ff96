package edge

import (
	"context"
	"testing"
	"time"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/value"
)

func sampleEvent() event.KeyedDataEvent {
	return event.KeyedDataEvent{
		JobId:       event.JobId{ResourceId: "job-1"},
		Data:        []value.Entry{value.NewEntry(value.Number(42))},
		EventTime:   time.Unix(100, 0).UTC(),
		ProcessTime: time.Unix(200, 0).UTC(),
	}
}

func TestLocalEdgeRoundTrip(t *testing.T) {
	out, in := NewLocalEdge(4)
	ctx := context.Background()

	if err := out.Send(ctx, sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, ok, err := in.Receive(ctx)
	if err != nil || !ok {
		t.Fatalf("Receive: ok=%v err=%v", ok, err)
	}
	if got.JobId.ResourceId != "job-1" {
		t.Errorf("expected job-1, got %q", got.JobId.ResourceId)
	}
	if len(got.Data) != 1 || got.Data[0].Value().Number != 42 {
		t.Errorf("expected decoded entry 42, got %+v", got.Data)
	}
	if !got.EventTime.Equal(time.Unix(100, 0).UTC()) {
		t.Errorf("expected EventTime round trip, got %v", got.EventTime)
	}
}

func TestLocalEdgePoll(t *testing.T) {
	out, in := NewLocalEdge(4)
	if _, ok := in.Poll(); ok {
		t.Fatalf("expected no item on empty channel")
	}
	if err := out.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ev, ok := in.Poll()
	if !ok {
		t.Fatalf("expected item after send")
	}
	if ev.JobId.ResourceId != "job-1" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestLocalEdgeCloseStopsReceive(t *testing.T) {
	out, in := NewLocalEdge(1)
	in.Close()

	_, ok, err := in.Receive(context.Background())
	if err != nil || ok {
		t.Fatalf("expected (false, nil) after close, got ok=%v err=%v", ok, err)
	}

	if err := out.Send(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected SendToLocalFailed after InEdge closed")
	}
}

func TestLocalEdgeTerminateClosesReceiveLoop(t *testing.T) {
	out, in := NewLocalEdge(1)
	if err := out.SendTerminate(context.Background()); err != nil {
		t.Fatalf("SendTerminate: %v", err)
	}
	_, ok, err := in.Receive(context.Background())
	if err != nil || ok {
		t.Fatalf("expected terminate to surface as (false, nil), got ok=%v err=%v", ok, err)
	}
}

func TestLocalEdgeBackpressureBlocksUntilCancelled(t *testing.T) {
	out, _ := NewLocalEdge(1)
	if err := out.Send(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := out.Send(ctx, sampleEvent()); err == nil {
		t.Fatalf("expected second send on a full channel to block until ctx cancellation")
	}
}

func TestEncodeDecodeKeyedDataEventPreservesKeyAndWindow(t *testing.T) {
	toID := 7
	key := value.NewEntry(value.String("k"))
	ev := event.KeyedDataEvent{
		JobId:          event.JobId{ResourceId: "job-2", Namespace: "ns"},
		FromOperatorId: 3,
		ToOperatorId:   &toID,
		Key:            &key,
		Data:           []value.Entry{value.NewEntry(value.Boolean(true))},
		Window:         &event.Window{Start: time.Unix(1, 0).UTC(), End: time.Unix(2, 0).UTC()},
	}

	encoded, err := encodeKeyedDataEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := decodeKeyedDataEvent(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.FromOperatorId != 3 || *decoded.ToOperatorId != 7 {
		t.Fatalf("unexpected ids: %+v", decoded)
	}
	if decoded.Key == nil || decoded.Key.Value().String != "k" {
		t.Fatalf("expected key round trip, got %+v", decoded.Key)
	}
	if decoded.Window == nil || !decoded.Window.Start.Equal(ev.Window.Start) {
		t.Fatalf("expected window round trip, got %+v", decoded.Window)
	}
	if decoded.JobId.Namespace != "ns" {
		t.Fatalf("expected namespace round trip, got %q", decoded.JobId.Namespace)
	}
}
