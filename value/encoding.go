package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned by Decode when the input ends before a complete
// value has been read.
var ErrTruncated = errors.New("value: truncated encoding")

// ErrUnknownTag is returned by Decode when the leading discriminator byte
// does not match any known Tag.
var ErrUnknownTag = errors.New("value: unknown type tag")

// Encode writes v in the engine's self-describing binary wire format: a
// 1-byte tag followed by a tag-specific payload. Numbers are IEEE-754
// float64 big-endian; strings and byte blobs are length-prefixed (4-byte
// big-endian count) followed by their raw bytes; arrays and objects are
// length-prefixed sequences of recursively encoded elements. This is the
// same shape used by both Local edges and the persisted state layout, so
// that an Entry's bytes never need re-encoding as it crosses those
// boundaries (spec §6).
func Encode(v TaggedValue) []byte {
	buf := make([]byte, 0, 16)
	buf = appendValue(buf, v)
	return buf
}

func appendValue(buf []byte, v TaggedValue) []byte {
	buf = append(buf, byte(v.Tag))
	switch v.Tag {
	case TagInvalid:
		// no payload
	case TagNumber:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.Number))
		buf = append(buf, tmp[:]...)
	case TagBoolean:
		if v.Boolean {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case TagString:
		buf = appendLenBytes(buf, []byte(v.String))
	case TagBytes:
		buf = appendLenBytes(buf, v.Bytes)
	case TagArray:
		buf = appendUint32(buf, uint32(len(v.Array)))
		for _, elem := range v.Array {
			buf = appendValue(buf, elem)
		}
	case TagObject:
		buf = appendUint32(buf, uint32(len(v.Object)))
		for _, f := range v.Object {
			buf = appendLenBytes(buf, []byte(f.Key))
			buf = appendValue(buf, f.Value)
		}
	default:
		// Unrepresentable — fold to Invalid's single-byte encoding.
		buf = buf[:len(buf)-1]
		buf = append(buf, byte(TagInvalid))
	}
	return buf
}

func appendUint32(buf []byte, n uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], n)
	return append(buf, tmp[:]...)
}

func appendLenBytes(buf []byte, b []byte) []byte {
	buf = appendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// Decode reads one TaggedValue from the front of b and returns it along
// with the number of bytes consumed. It never panics on malformed input;
// callers that need the "never fails" contract (e.g. state reads) should
// fold a non-nil error to Invalid themselves.
func Decode(b []byte) (TaggedValue, int, error) {
	if len(b) < 1 {
		return Invalid(), 0, ErrTruncated
	}
	tag := Tag(b[0])
	rest := b[1:]
	switch tag {
	case TagInvalid:
		return Invalid(), 1, nil
	case TagNumber:
		if len(rest) < 8 {
			return Invalid(), 0, ErrTruncated
		}
		bits := binary.BigEndian.Uint64(rest[:8])
		return Number(math.Float64frombits(bits)), 9, nil
	case TagBoolean:
		if len(rest) < 1 {
			return Invalid(), 0, ErrTruncated
		}
		return Boolean(rest[0] != 0), 2, nil
	case TagString:
		s, n, err := readLenBytes(rest)
		if err != nil {
			return Invalid(), 0, err
		}
		return String(string(s)), 1 + n, nil
	case TagBytes:
		b2, n, err := readLenBytes(rest)
		if err != nil {
			return Invalid(), 0, err
		}
		return Bytes(b2), 1 + n, nil
	case TagArray:
		count, n, err := readUint32(rest)
		if err != nil {
			return Invalid(), 0, err
		}
		consumed := 1 + n
		rest = rest[n:]
		elems := make([]TaggedValue, 0, count)
		for i := uint32(0); i < count; i++ {
			elem, m, err := Decode(rest)
			if err != nil {
				return Invalid(), 0, err
			}
			elems = append(elems, elem)
			rest = rest[m:]
			consumed += m
		}
		return Array(elems), consumed, nil
	case TagObject:
		count, n, err := readUint32(rest)
		if err != nil {
			return Invalid(), 0, err
		}
		consumed := 1 + n
		rest = rest[n:]
		fields := make([]Field, 0, count)
		for i := uint32(0); i < count; i++ {
			key, m, err := readLenBytes(rest)
			if err != nil {
				return Invalid(), 0, err
			}
			rest = rest[m:]
			consumed += m
			fv, k, err := Decode(rest)
			if err != nil {
				return Invalid(), 0, err
			}
			rest = rest[k:]
			consumed += k
			fields = append(fields, Field{Key: string(key), Value: fv})
		}
		return Object(fields), consumed, nil
	default:
		return Invalid(), 0, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
}

func readUint32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(b[:4]), 4, nil
}

func readLenBytes(b []byte) ([]byte, int, error) {
	n, consumed, err := readUint32(b)
	if err != nil {
		return nil, 0, err
	}
	if uint32(len(b)-consumed) < n {
		return nil, 0, ErrTruncated
	}
	return b[consumed : consumed+int(n)], consumed + int(n), nil
}

// DecodeOne decodes exactly one value from b and reports whether any
// trailing bytes were left over (an EncodeError condition for callers that
// expect b to hold a single value, such as state reads).
func DecodeOne(b []byte) (TaggedValue, error) {
	v, n, err := Decode(b)
	if err != nil {
		return Invalid(), err
	}
	if n != len(b) {
		return Invalid(), fmt.Errorf("value: %d trailing bytes after decode", len(b)-n)
	}
	return v, nil
}
