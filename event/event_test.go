package event

import (
	"testing"
	"time"

	"github.com/flowdag/flowdag/value"
)

func TestKeyedDataEventClone(t *testing.T) {
	to := 3
	orig := KeyedDataEvent{
		JobId:          JobId{ResourceId: "job-1"},
		FromOperatorId: 1,
		ToOperatorId:   &to,
		Key:            &value.Entry{TypeTag: value.TagString},
		Data:           []value.Entry{{TypeTag: value.TagNumber}},
		EventTime:      time.Unix(0, 0),
		Window:         &Window{Start: time.Unix(0, 0), End: time.Unix(1, 0)},
	}

	clone := orig.Clone()
	clone.Data[0] = value.Entry{TypeTag: value.TagBoolean}
	*clone.ToOperatorId = 99
	*clone.Key = value.Entry{TypeTag: value.TagBytes}
	clone.Window.End = time.Unix(2, 0)

	if orig.Data[0].TypeTag != value.TagNumber {
		t.Errorf("Clone shared Data slice with original")
	}
	if *orig.ToOperatorId != 3 {
		t.Errorf("Clone shared ToOperatorId pointer with original")
	}
	if orig.Key.TypeTag != value.TagString {
		t.Errorf("Clone shared Key pointer with original")
	}
	if orig.Window.End != time.Unix(1, 0) {
		t.Errorf("Clone shared Window pointer with original")
	}
}

func TestKeyedDataEventWithDataPreservesMetadata(t *testing.T) {
	orig := KeyedDataEvent{
		JobId:     JobId{ResourceId: "job-1"},
		Key:       &value.Entry{TypeTag: value.TagString},
		EventTime: time.Unix(42, 0),
	}
	out := orig.WithData([]value.Entry{{TypeTag: value.TagNumber}})
	if out.EventTime != orig.EventTime || out.Key.TypeTag != orig.Key.TypeTag {
		t.Errorf("WithData dropped metadata: %+v", out)
	}
	if len(out.Data) != 1 {
		t.Errorf("expected 1 data entry, got %d", len(out.Data))
	}
}

func TestKeyedDataEventWithKey(t *testing.T) {
	orig := KeyedDataEvent{JobId: JobId{ResourceId: "job-1"}}
	k := value.Entry{TypeTag: value.TagString}
	out := orig.WithKey(k)
	if out.Key == nil || out.Key.TypeTag != k.TypeTag {
		t.Fatalf("expected key to be stamped, got %+v", out.Key)
	}
	if orig.Key != nil {
		t.Errorf("WithKey mutated receiver")
	}
}

func TestJobIdString(t *testing.T) {
	j := JobId{ResourceId: "abc"}
	if j.String() != "abc" {
		t.Errorf("expected %q, got %q", "abc", j.String())
	}
	j.Namespace = "ns"
	if j.String() != "ns/abc" {
		t.Errorf("expected %q, got %q", "ns/abc", j.String())
	}
}

func TestExecutionIdString(t *testing.T) {
	e := ExecutionId{JobId: JobId{ResourceId: "job-1"}, SubId: 2}
	if got, want := e.String(), "job-1#2"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
