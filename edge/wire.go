package edge

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/value"
)

var errClosedChannel = errors.New("channel closed")

// encodeKeyedDataEvent serializes a KeyedDataEvent field by field in a fixed
// order that decodeKeyedDataEvent reads back in the same order. Strings and
// each value.Encode'd Key/Data entry are length-prefixed (4-byte big-endian);
// operator ids and the Data count are raw 4-byte big-endian ints, and times
// are raw 8-byte Unix nanoseconds. Fields carry no tags. Key, ToOperatorId
// and Window are optional and prefixed with a presence byte.
func encodeKeyedDataEvent(ev event.KeyedDataEvent) ([]byte, error) {
	buf := make([]byte, 0, 128)

	buf = appendString(buf, ev.JobId.ResourceId)
	buf = appendString(buf, ev.JobId.Namespace)
	buf = appendInt32(buf, int32(ev.FromOperatorId))

	if ev.ToOperatorId != nil {
		buf = append(buf, 1)
		buf = appendInt32(buf, int32(*ev.ToOperatorId))
	} else {
		buf = append(buf, 0)
	}

	if ev.Key != nil {
		buf = append(buf, 1)
		buf = appendLenBytes(buf, value.Encode(ev.Key.Value()))
	} else {
		buf = append(buf, 0)
	}

	buf = appendInt32(buf, int32(len(ev.Data)))
	for _, entry := range ev.Data {
		buf = appendLenBytes(buf, value.Encode(entry.Value()))
	}

	buf = appendTime(buf, ev.EventTime)
	buf = appendTime(buf, ev.ProcessTime)

	if ev.Window != nil {
		buf = append(buf, 1)
		buf = appendTime(buf, ev.Window.Start)
		buf = appendTime(buf, ev.Window.End)
	} else {
		buf = append(buf, 0)
	}

	return buf, nil
}

func decodeKeyedDataEvent(b []byte) (event.KeyedDataEvent, error) {
	var ev event.KeyedDataEvent
	var ok bool
	var err error

	ev.JobId.ResourceId, b, ok = readString(b)
	if !ok {
		return ev, errTruncatedEvent
	}
	ev.JobId.Namespace, b, ok = readString(b)
	if !ok {
		return ev, errTruncatedEvent
	}
	var fromID int32
	fromID, b, ok = readInt32(b)
	if !ok {
		return ev, errTruncatedEvent
	}
	ev.FromOperatorId = int(fromID)

	if len(b) == 0 {
		return ev, errTruncatedEvent
	}
	hasTo := b[0]
	b = b[1:]
	if hasTo == 1 {
		var toID int32
		toID, b, ok = readInt32(b)
		if !ok {
			return ev, errTruncatedEvent
		}
		id := int(toID)
		ev.ToOperatorId = &id
	}

	if len(b) == 0 {
		return ev, errTruncatedEvent
	}
	hasKey := b[0]
	b = b[1:]
	if hasKey == 1 {
		var raw []byte
		raw, b, ok = readLenBytesLocal(b)
		if !ok {
			return ev, errTruncatedEvent
		}
		tv, err := value.DecodeOne(raw)
		if err != nil {
			return ev, err
		}
		k := value.NewEntry(tv)
		ev.Key = &k
	}

	var count int32
	count, b, ok = readInt32(b)
	if !ok {
		return ev, errTruncatedEvent
	}
	ev.Data = make([]value.Entry, 0, count)
	for n := int32(0); n < count; n++ {
		var raw []byte
		raw, b, ok = readLenBytesLocal(b)
		if !ok {
			return ev, errTruncatedEvent
		}
		tv, err := value.DecodeOne(raw)
		if err != nil {
			return ev, err
		}
		ev.Data = append(ev.Data, value.NewEntry(tv))
	}

	ev.EventTime, b, err = readTime(b)
	if err != nil {
		return ev, err
	}
	ev.ProcessTime, b, err = readTime(b)
	if err != nil {
		return ev, err
	}

	if len(b) == 0 {
		return ev, errTruncatedEvent
	}
	hasWindow := b[0]
	b = b[1:]
	if hasWindow == 1 {
		var w event.Window
		w.Start, b, err = readTime(b)
		if err != nil {
			return ev, err
		}
		w.End, _, err = readTime(b)
		if err != nil {
			return ev, err
		}
		ev.Window = &w
	}

	return ev, nil
}

var errTruncatedEvent = errors.New("edge: truncated KeyedDataEvent")

func appendInt32(buf []byte, n int32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(n))
	return append(buf, tmp[:]...)
}

func readInt32(b []byte) (int32, []byte, bool) {
	if len(b) < 4 {
		return 0, b, false
	}
	return int32(binary.BigEndian.Uint32(b[:4])), b[4:], true
}

func appendString(buf []byte, s string) []byte {
	return appendLenBytes(buf, []byte(s))
}

func readString(b []byte) (string, []byte, bool) {
	raw, rest, ok := readLenBytesLocal(b)
	if !ok {
		return "", b, false
	}
	return string(raw), rest, true
}

func appendLenBytes(buf []byte, b []byte) []byte {
	buf = appendInt32(buf, int32(len(b)))
	return append(buf, b...)
}

func readLenBytesLocal(b []byte) ([]byte, []byte, bool) {
	n, rest, ok := readInt32(b)
	if !ok || int(n) > len(rest) || n < 0 {
		return nil, b, false
	}
	return rest[:n], rest[n:], true
}

func appendTime(buf []byte, t time.Time) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(t.UnixNano()))
	return append(buf, tmp[:]...)
}

func readTime(b []byte) (time.Time, []byte, error) {
	if len(b) < 8 {
		return time.Time{}, b, errTruncatedEvent
	}
	nanos := int64(binary.BigEndian.Uint64(b[:8]))
	return time.Unix(0, nanos).UTC(), b[8:], nil
}
