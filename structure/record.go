package structure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/katalvlaran/voxbrick/brick"
)

// Canonical CBOR sorts keys by length then bytes, which keeps decimal keys
// in numeric order.
var (
	cborEnc = mustEncMode()
	cborDec = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("structure: cbor encoder: %v", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("structure: cbor decoder: %v", err))
	}
	return dm
}

// wireRecord detects missing fields, which would otherwise decode as the
// valid brick id 0 or position 0.
type wireRecord struct {
	BrickID *int `json:"brick_id" cbor:"brick_id"`
	X       *int `json:"x" cbor:"x"`
	Y       *int `json:"y" cbor:"y"`
	Z       *int `json:"z" cbor:"z"`
	Ori     *int `json:"ori" cbor:"ori"`
}

func (w wireRecord) record() (brick.Record, string) {
	fields := []struct {
		name string
		v    *int
	}{
		{"brick_id", w.BrickID}, {"x", w.X}, {"y", w.Y}, {"z", w.Z}, {"ori", w.Ori},
	}
	for _, f := range fields {
		if f.v == nil {
			return brick.Record{}, f.name
		}
	}
	return brick.Record{BrickID: *w.BrickID, X: *w.X, Y: *w.Y, Z: *w.Z, Ori: *w.Ori}, ""
}

// Record returns the structured-record form keyed "1".."N" in insertion
// order.
func (s *Structure) Record() map[string]brick.Record {
	out := make(map[string]brick.Record, len(s.bricks))
	for i, b := range s.bricks {
		out[strconv.Itoa(i+1)] = b.Record()
	}
	return out
}

// RecordJSON encodes Record as compact JSON with keys in numeric order.
func (s *Structure) RecordJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range s.bricks {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `"%d":`, i+1)
		data, err := json.Marshal(b.Record())
		if err != nil {
			return nil, fmt.Errorf("structure: record %d: %w", i+1, err)
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RecordCBOR encodes Record as canonical CBOR.
func (s *Structure) RecordCBOR() ([]byte, error) {
	data, err := cborEnc.Marshal(s.Record())
	if err != nil {
		return nil, fmt.Errorf("structure: cbor encode: %w", err)
	}
	return data, nil
}

// FromRecord decodes the structured-record form. Keys must be exactly
// "1".."N"; the structure follows key order.
func FromRecord(records map[string]brick.Record, opts ...Option) (*Structure, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	bricks := make([]brick.Brick, 0, len(records))
	for i := 1; i <= len(records); i++ {
		r, ok := records[strconv.Itoa(i)]
		if !ok {
			return nil, &FormatError{Format: FormatRecord, Line: i, Field: "key",
				Err: fmt.Errorf("record keys must be 1..%d", len(records))}
		}
		b, err := brick.FromRecord(cfg.cat, r)
		if err != nil {
			return nil, &FormatError{Format: FormatRecord, Line: i, Err: err}
		}
		bricks = append(bricks, b)
	}
	return &Structure{cfg: cfg, bricks: bricks}, nil
}

// FromRecordJSON decodes RecordJSON output. Unknown and missing fields are
// rejected.
func FromRecordJSON(data []byte, opts ...Option) (*Structure, error) {
	var wire map[string]wireRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&wire); err != nil {
		return nil, &FormatError{Format: FormatRecord, Err: err}
	}
	if dec.More() {
		return nil, &FormatError{Format: FormatRecord, Err: errors.New("trailing data after record object")}
	}
	return fromWire(wire, opts)
}

// FromRecordCBOR decodes RecordCBOR output. Unknown fields and duplicate
// keys are rejected.
func FromRecordCBOR(data []byte, opts ...Option) (*Structure, error) {
	var wire map[string]wireRecord
	if err := cborDec.Unmarshal(data, &wire); err != nil {
		return nil, &FormatError{Format: FormatRecord, Err: err}
	}
	return fromWire(wire, opts)
}

func fromWire(wire map[string]wireRecord, opts []Option) (*Structure, error) {
	records := make(map[string]brick.Record, len(wire))
	for i := 1; i <= len(wire); i++ {
		key := strconv.Itoa(i)
		w, ok := wire[key]
		if !ok {
			break
		}
		r, missing := w.record()
		if missing != "" {
			return nil, &FormatError{Format: FormatRecord, Line: i, Field: missing,
				Err: errors.New("missing field")}
		}
		records[key] = r
	}
	if len(records) != len(wire) {
		return nil, &FormatError{Format: FormatRecord, Line: len(records) + 1, Field: "key",
			Err: fmt.Errorf("record keys must be 1..%d", len(wire))}
	}
	return FromRecord(records, opts...)
}
