package value

import "testing"

// TestEncodeDecodeRoundTrip covers the round-trip law from spec §8: encode
// then decode of any TaggedValue yields the same value.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []TaggedValue{
		Invalid(),
		Number(0),
		Number(-42.5),
		Boolean(true),
		Boolean(false),
		String(""),
		String("bar"),
		Bytes([]byte{1, 2, 3}),
		Array([]TaggedValue{Number(1), String("a")}),
		Object([]Field{{Key: "foo", Value: String("bar")}, {Key: "n", Value: Number(2)}}),
		Array([]TaggedValue{Array([]TaggedValue{Object([]Field{{Key: "x", Value: Boolean(true)}})})}),
	}

	for i, want := range cases {
		got, err := DecodeOne(Encode(want))
		if err != nil {
			t.Fatalf("case %d: decode error: %v", i, err)
		}
		if !Equal(got, want) {
			t.Errorf("case %d: round-trip mismatch: got %+v, want %+v", i, got, want)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := Encode(String("hello"))
	if _, _, err := Decode(full[:len(full)-1]); err == nil {
		t.Error("expected error decoding truncated string")
	}
	if _, _, err := Decode(nil); err != ErrTruncated {
		t.Errorf("expected ErrTruncated on empty input, got %v", err)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	if _, _, err := Decode([]byte{99}); err == nil {
		t.Error("expected error for unknown tag")
	}
}

func TestEntryRoundTrip(t *testing.T) {
	e := NewEntry(Object([]Field{{Key: "foo", Value: String("bar1")}}))
	got := e.Value()
	if got.Tag != TagObject {
		t.Fatalf("expected object, got tag %d", got.Tag)
	}
	v, ok := got.Get("foo")
	if !ok || v.String != "bar1" {
		t.Errorf("expected foo=bar1, got %+v ok=%v", v, ok)
	}
}
