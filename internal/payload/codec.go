package payload

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/Meesho/BharatMLStack/gradflow/internal/round"
)

// Snapshot and result payloads are little-endian binary frames wrapped in
// zstd. Layout of a snapshot frame:
//
//	u32 entryCount
//	per entry: u16 nameLen, name bytes, u32 valueCount, float32 values
//
// A result frame prepends two i64 counts and two float64 error sums to the
// gradient snapshot frame. Entries are written in sorted name order so the
// same payload always serializes to the same bytes.

var byteOrder = binary.LittleEndian

// EncodeSnapshot serializes and compresses a parameter snapshot.
func EncodeSnapshot(s round.Snapshot) []byte {
	return NewZStdEncoder().Encode(appendSnapshot(nil, s))
}

// DecodeSnapshot decompresses and parses a parameter snapshot.
func DecodeSnapshot(data []byte) (round.Snapshot, error) {
	raw, err := NewZStdDecoder().Decode(data)
	if err != nil {
		return nil, err
	}
	s, rest, err := readSnapshot(raw)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("snapshot payload has %d trailing bytes", len(rest))
	}
	return s, nil
}

// EncodeResult serializes and compresses a round result.
func EncodeResult(r *round.Result) []byte {
	buf := make([]byte, 0, 32)
	buf = byteOrder.AppendUint64(buf, uint64(r.TrainCount))
	buf = byteOrder.AppendUint64(buf, uint64(r.ValidationCount))
	buf = byteOrder.AppendUint64(buf, math.Float64bits(r.TrainError))
	buf = byteOrder.AppendUint64(buf, math.Float64bits(r.ValidationError))
	buf = appendSnapshot(buf, r.Gradients)
	return NewZStdEncoder().Encode(buf)
}

// DecodeResult decompresses and parses a round result.
func DecodeResult(data []byte) (*round.Result, error) {
	raw, err := NewZStdDecoder().Decode(data)
	if err != nil {
		return nil, err
	}
	if len(raw) < 32 {
		return nil, fmt.Errorf("result payload too short: %d bytes", len(raw))
	}
	r := &round.Result{
		TrainCount:      int64(byteOrder.Uint64(raw[0:8])),
		ValidationCount: int64(byteOrder.Uint64(raw[8:16])),
		TrainError:      math.Float64frombits(byteOrder.Uint64(raw[16:24])),
		ValidationError: math.Float64frombits(byteOrder.Uint64(raw[24:32])),
	}
	s, rest, err := readSnapshot(raw[32:])
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("result payload has %d trailing bytes", len(rest))
	}
	r.Gradients = s
	return r, nil
}

func appendSnapshot(buf []byte, s round.Snapshot) []byte {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	buf = byteOrder.AppendUint32(buf, uint32(len(names)))
	for _, name := range names {
		buf = byteOrder.AppendUint16(buf, uint16(len(name)))
		buf = append(buf, name...)
		vals := s[name]
		buf = byteOrder.AppendUint32(buf, uint32(len(vals)))
		for _, v := range vals {
			buf = byteOrder.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

func readSnapshot(raw []byte) (round.Snapshot, []byte, error) {
	if len(raw) < 4 {
		return nil, nil, fmt.Errorf("snapshot frame too short: %d bytes", len(raw))
	}
	count := byteOrder.Uint32(raw[0:4])
	raw = raw[4:]
	s := make(round.Snapshot, count)
	for i := uint32(0); i < count; i++ {
		if len(raw) < 2 {
			return nil, nil, fmt.Errorf("truncated entry name length")
		}
		nameLen := int(byteOrder.Uint16(raw[0:2]))
		raw = raw[2:]
		if len(raw) < nameLen+4 {
			return nil, nil, fmt.Errorf("truncated entry %d", i)
		}
		name := string(raw[:nameLen])
		raw = raw[nameLen:]
		valueCount := int(byteOrder.Uint32(raw[0:4]))
		raw = raw[4:]
		if len(raw) < valueCount*4 {
			return nil, nil, fmt.Errorf("truncated values of %q", name)
		}
		vals := make([]float32, valueCount)
		for v := 0; v < valueCount; v++ {
			vals[v] = math.Float32frombits(byteOrder.Uint32(raw[v*4 : v*4+4]))
		}
		raw = raw[valueCount*4:]
		s[name] = vals
	}
	return s, raw, nil
}
