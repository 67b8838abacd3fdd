package jwtclaims

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// hashEntries combines per-entry digests with addition so the result does not
// depend on insertion order.
func hashEntries(entries map[string]Value) uint64 {
	var sum uint64
	for name, v := range entries {
		d := xxhash.New()
		_, _ = d.WriteString(name)
		_, _ = d.Write([]byte{0})
		writeValue(d, v)
		sum += d.Sum64()
	}
	return sum ^ uint64(len(entries))
}

func writeValue(d *xxhash.Digest, v Value) {
	var buf [9]byte
	// Integral floats hash like the equivalent integer so that Int(1) and
	// Float(1) collide, matching Value.Equal.
	if v.isNumber() {
		if i, ok := v.exactInt(); ok {
			buf[0] = byte(KindInt)
			binary.BigEndian.PutUint64(buf[1:], uint64(i))
		} else {
			buf[0] = byte(KindFloat)
			binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v.flt))
		}
		_, _ = d.Write(buf[:])
		return
	}
	_, _ = d.Write([]byte{byte(v.kind)})
	switch v.kind {
	case KindString:
		binary.BigEndian.PutUint64(buf[1:], uint64(len(v.str)))
		_, _ = d.Write(buf[1:])
		_, _ = d.WriteString(v.str)
	case KindBool:
		if v.bl {
			_, _ = d.Write([]byte{1})
		} else {
			_, _ = d.Write([]byte{0})
		}
	case KindArray:
		binary.BigEndian.PutUint64(buf[1:], uint64(len(v.arr)))
		_, _ = d.Write(buf[1:])
		for _, item := range v.arr {
			writeValue(d, item)
		}
	case KindObject:
		binary.BigEndian.PutUint64(buf[1:], v.obj.Hash())
		_, _ = d.Write(buf[1:])
	}
}
