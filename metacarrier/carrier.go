// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package metacarrier provides per-stream auxiliary storage without
// thread-locals, globals, or the original format's cross-ABI slot
// reconciliation trick (spec.md §9 design note: "the cross-ABI
// slot-reconciliation trick becomes unnecessary if all archive code paths
// go through a single metadata carrier; drop it").
//
// A Carrier is any stream the archive reads or writes through, extended
// with a small side-table slot the Archive uses to thread StreamMetadata
// through deeply nested read/write calls without a package-level global.
package metacarrier

import "io"

// Carrier is the interface the archive requires of any stream it operates
// on: ordinary I/O, plus one slot for the currently-bound metadata value.
// Concrete implementations (file, memory, mapped-file buffers) embed
// *Slot to get this for free.
type Carrier interface {
	io.Reader
	io.Writer
	// MetaSlot returns the stream's metadata side-table slot.
	MetaSlot() *Slot
}

// Slot is the per-stream side-table cell. It holds exactly one value at a
// time: a *streammeta.Metadata in practice, stored as `any` here to
// avoid an import cycle (streammeta depends on metacarrier, not the other
// way around).
type Slot struct {
	bound any
}

// Get returns the currently bound value, or nil if none is bound.
func (s *Slot) Get() any { return s.bound }

// Set installs v as the bound value and returns the previous value, so
// callers can restore it later (spec.md §4.2 restore_on_scope_exit).
func (s *Slot) Set(v any) (previous any) {
	previous = s.bound
	s.bound = v
	return
}

// RestoreOnScopeExit saves the slot's current value and returns a func that
// restores it; intended for `defer slot.RestoreOnScopeExit()()` around every
// per-grid read/write so the file-level binding survives regardless of
// success or failure (spec.md §4.2, invariant in spec.md §8 law 7).
func (s *Slot) RestoreOnScopeExit() func() {
	saved := s.bound
	return func() { s.bound = saved }
}

// ReaderCarrier adapts a plain io.Reader into a Carrier for read-only
// operations (Write is a no-op error).
type ReaderCarrier struct {
	io.Reader
	slot Slot
}

func NewReaderCarrier(r io.Reader) *ReaderCarrier { return &ReaderCarrier{Reader: r} }

func (c *ReaderCarrier) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }
func (c *ReaderCarrier) MetaSlot() *Slot             { return &c.slot }

// WriterCarrier adapts a plain io.Writer into a Carrier for write-only
// operations (Read is a no-op error).
type WriterCarrier struct {
	io.Writer
	slot Slot
}

func NewWriterCarrier(w io.Writer) *WriterCarrier { return &WriterCarrier{Writer: w} }

func (c *WriterCarrier) Read(p []byte) (int, error) { return 0, io.EOF }
func (c *WriterCarrier) MetaSlot() *Slot            { return &c.slot }

// ReadWriteCarrier adapts an io.ReadWriter (e.g. a seekable os.File or an
// in-memory buffer) into a full Carrier.
type ReadWriteCarrier struct {
	io.Reader
	io.Writer
	slot Slot
}

func NewReadWriteCarrier(rw io.ReadWriter) *ReadWriteCarrier {
	return &ReadWriteCarrier{Reader: rw, Writer: rw}
}

func (c *ReadWriteCarrier) MetaSlot() *Slot { return &c.slot }
