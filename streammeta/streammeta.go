// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package streammeta implements StreamMetadata: a per-operation,
// stack-copyable record threaded through an Archive's reads and writes via
// a metacarrier.Slot (spec.md §4.2).
package streammeta

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/metacarrier"
)

// AuxValue is a value stored in the auxiliary map. The archive itself never
// interprets these; they're delegated, opaque payloads (spec.md §1).
// SetAux only accepts values that cbor can encode, but the value is kept as
// a Go value and this package never serializes the map.
type AuxValue struct {
	// Raw holds the value exactly as passed to SetAux; it's what callers
	// get back from GetAux.
	Raw any
}

// Metadata is the per-operation record bound to a stream for the duration
// of one archive read or write, and shallow-copied per grid.
type Metadata struct {
	FileVersion      uint32
	LibMajor         uint32
	LibMinor         uint32
	Compression      uint32 // bitset of compression.Flags
	BloscCodec       compression.BloscCodec
	GridClass        gridio.Class
	Background       any // opaque background-value pointer
	HalfFloat        bool
	WriteGridStats   bool
	Seekable         bool
	CountingPasses   bool
	PassCount        int
	LeafCount        uint64
	GridMetadata     gridio.MetadataMap // snapshot of the current grid's metadata, nil at file scope
	Aux              map[string]AuxValue
	DelayedLoadKnown bool // delayed-load metadata has been registered for this stream
	TestHook         bool // __test(): when true, read path retains DelayedLoadMetadata on the grid
}

// New returns a zero-value Metadata with its aux map initialized.
func New() *Metadata {
	return &Metadata{Aux: map[string]AuxValue{}}
}

// Clone returns a value copy. Per-grid operations clone the file-level
// metadata, then mutate the half-float/grid-metadata fields on the clone,
// leaving the file-level original untouched (spec.md §4.2 clone()).
func (m *Metadata) Clone() *Metadata {
	c := *m
	c.Aux = make(map[string]AuxValue, len(m.Aux))
	for k, v := range m.Aux {
		c.Aux[k] = v
	}
	if m.GridMetadata != nil {
		c.GridMetadata = m.GridMetadata.Clone()
	}
	return &c
}

// Bind stores m in carrier's metadata slot. transferDefaults is accepted so
// call sites keep the shape of the original bind(stream, transferDefaults)
// call (spec.md §4.2), but it has no further effect: nothing is mirrored
// outside the bound Metadata.
func (m *Metadata) Bind(carrier metacarrier.Carrier, transferDefaults bool) {
	carrier.MetaSlot().Set(m)
	if transferDefaults {
		// The legacy integer/pointer slots this used to back-fill have no
		// analogue once every caller goes through the Carrier interface
		// (spec.md §9 design note); nothing further to do, but the flag is
		// kept so call sites document their intent the way the original
		// bind(stream, transferDefaults) contract did.
		_ = transferDefaults
	}
}

// Restore returns the Metadata currently bound to carrier, or nil.
func Restore(carrier metacarrier.Carrier) *Metadata {
	v := carrier.MetaSlot().Get()
	if v == nil {
		return nil
	}
	md, _ := v.(*Metadata)
	return md
}

// ScopeGuard saves carrier's current binding and returns a restore func.
// Call as `defer streammeta.ScopeGuard(carrier)()` around every per-grid
// read/write so the file-level binding is reinstated on all exit paths,
// including panics recovered higher up (spec.md §4.2
// restore_on_scope_exit, invariant tested in spec.md §8 law 7).
func ScopeGuard(carrier metacarrier.Carrier) func() {
	return carrier.MetaSlot().RestoreOnScopeExit()
}

// SetAux stores a cbor-encodable value under key.
func (m *Metadata) SetAux(key string, value any) error {
	if _, err := cbor.Marshal(value); err != nil {
		return errors.Wrapf(err, "streammeta: encoding aux value %q", key)
	}
	m.Aux[key] = AuxValue{Raw: value}
	return nil
}

// GetAux retrieves a previously stored value.
func (m *Metadata) GetAux(key string) (any, bool) {
	v, ok := m.Aux[key]
	if ok {
		return v.Raw, true
	}
	return nil, false
}
