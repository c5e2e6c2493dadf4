// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package gridio

import (
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// entry is one metadata value, cbor-encoded so SimpleMetadataMap can carry
// any Go value (string, bool, numeric, or an opaque blob such as a
// delayedload.Metadata) through the same tuple wire format.
type entry struct {
	typeTag string
	raw     []byte
}

// SimpleMetadataMap is a reference MetadataMap implementation: a
// string-keyed map of cbor-encoded values, serialized as count-prefixed
// (name, type-tag, length, value) tuples (spec.md §6 "Archive-level
// metadata map"). Grid implementations are free to use their own
// MetadataMap instead; this one exists so the archive-level map and tests
// have a concrete, dependency-free default.
type SimpleMetadataMap struct {
	entries map[string]entry
}

// NewSimpleMetadataMap returns an empty map.
func NewSimpleMetadataMap() *SimpleMetadataMap {
	return &SimpleMetadataMap{entries: map[string]entry{}}
}

func (m *SimpleMetadataMap) ensure() {
	if m.entries == nil {
		m.entries = map[string]entry{}
	}
}

// WriteTo writes a 4-byte tuple count followed by each (name, type-tag,
// length, value) tuple.
func (m *SimpleMetadataMap) WriteTo(w io.Writer) (int64, error) {
	var n int64
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(m.entries)))
	written, err := w.Write(countBuf[:])
	n += int64(written)
	if err != nil {
		return n, errors.Wrap(err, "simplemap: writing tuple count")
	}
	for name, e := range m.entries {
		wn, err := writeTuple(w, name, e)
		n += wn
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func writeTuple(w io.Writer, name string, e entry) (int64, error) {
	var n int64
	for _, s := range []string{name, e.typeTag} {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
		wn, err := w.Write(lenBuf[:])
		n += int64(wn)
		if err != nil {
			return n, errors.Wrap(err, "simplemap: writing tuple string length")
		}
		wn, err = io.WriteString(w, s)
		n += int64(wn)
		if err != nil {
			return n, errors.Wrap(err, "simplemap: writing tuple string bytes")
		}
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.raw)))
	wn, err := w.Write(lenBuf[:])
	n += int64(wn)
	if err != nil {
		return n, errors.Wrap(err, "simplemap: writing tuple value length")
	}
	wn, err = w.Write(e.raw)
	n += int64(wn)
	if err != nil {
		return n, errors.Wrap(err, "simplemap: writing tuple value bytes")
	}
	return n, nil
}

// ReadFrom replaces m's contents by reading tuples written by WriteTo.
func (m *SimpleMetadataMap) ReadFrom(r io.Reader) (int64, error) {
	m.ensure()
	for k := range m.entries {
		delete(m.entries, k)
	}

	var n int64
	var countBuf [4]byte
	rn, err := io.ReadFull(r, countBuf[:])
	n += int64(rn)
	if err != nil {
		return n, errors.Wrap(err, "simplemap: reading tuple count")
	}
	count := binary.LittleEndian.Uint32(countBuf[:])

	for i := uint32(0); i < count; i++ {
		name, typeTag, raw, rn2, err := readTuple(r)
		n += rn2
		if err != nil {
			return n, err
		}
		m.entries[name] = entry{typeTag: typeTag, raw: raw}
	}
	return n, nil
}

func readTuple(r io.Reader) (name, typeTag string, raw []byte, n int64, err error) {
	strs := make([]string, 2)
	for i := range strs {
		var lenBuf [4]byte
		rn, err := io.ReadFull(r, lenBuf[:])
		n += int64(rn)
		if err != nil {
			return "", "", nil, n, errors.Wrap(err, "simplemap: reading tuple string length")
		}
		l := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, l)
		rn, err = io.ReadFull(r, buf)
		n += int64(rn)
		if err != nil {
			return "", "", nil, n, errors.Wrap(err, "simplemap: reading tuple string bytes")
		}
		strs[i] = string(buf)
	}
	var lenBuf [4]byte
	rn, err := io.ReadFull(r, lenBuf[:])
	n += int64(rn)
	if err != nil {
		return "", "", nil, n, errors.Wrap(err, "simplemap: reading tuple value length")
	}
	l := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, l)
	rn, err = io.ReadFull(r, buf)
	n += int64(rn)
	if err != nil {
		return "", "", nil, n, errors.Wrap(err, "simplemap: reading tuple value bytes")
	}
	return strs[0], strs[1], buf, n, nil
}

// Clone returns an independent copy.
func (m *SimpleMetadataMap) Clone() MetadataMap {
	c := NewSimpleMetadataMap()
	for k, v := range m.entries {
		raw := make([]byte, len(v.raw))
		copy(raw, v.raw)
		c.entries[k] = entry{typeTag: v.typeTag, raw: raw}
	}
	return c
}

func (m *SimpleMetadataMap) GetString(key string) (string, bool) {
	m.ensure()
	e, ok := m.entries[key]
	if !ok || e.typeTag != "string" {
		return "", false
	}
	var s string
	if err := cbor.Unmarshal(e.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (m *SimpleMetadataMap) SetString(key, value string) {
	m.ensure()
	raw, _ := cbor.Marshal(value)
	m.entries[key] = entry{typeTag: "string", raw: raw}
}

func (m *SimpleMetadataMap) GetValue(key string) (any, bool) {
	m.ensure()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	var v any
	if err := cbor.Unmarshal(e.raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (m *SimpleMetadataMap) SetValue(key string, value any) {
	m.ensure()
	raw, err := cbor.Marshal(value)
	if err != nil {
		return
	}
	m.entries[key] = entry{typeTag: "opaque", raw: raw}
}

func (m *SimpleMetadataMap) Delete(key string) {
	m.ensure()
	delete(m.entries, key)
}

func (m *SimpleMetadataMap) Has(key string) bool {
	m.ensure()
	_, ok := m.entries[key]
	return ok
}
