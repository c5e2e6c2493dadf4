// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package delayedload populates DelayedLoadMetadata: the per-leaf mask and
// compressed-size table a random-access reader consults to seek directly to
// a leaf's buffer without decoding everything before it (spec.md §4.7).
package delayedload

import (
	"bytes"
	"sync"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
)

// Metadata is the ordered, per-leaf table keyed by leaf index within a
// grid: a mask-compression descriptor byte, and (when ZIP or BLOSC is in
// effect) the leaf's compressed size inclusive of an 8-byte length header
// (spec.md §3 "DelayedLoadMetadata", §9 open question on the fixed 8-byte
// addend — preserved as-is).
type Metadata struct {
	MaskBytes      []byte
	CompressedSize []uint64 // nil when compression carries no ZIP/BLOSC bit
}

// sizeHeaderBytes is the fixed length-prefix width folded into every
// recorded compressed size (spec.md §9: "do not alter").
const sizeHeaderBytes = 8

// leafWorkers bounds the fan-out used to populate per-leaf entries. There is
// no task-pool library in the dependency set this module draws from
// (SPEC_FULL.md §5), so population uses a small fixed-size sync.WaitGroup
// pool over disjoint leaf indices instead.
const leafWorkers = 8

// Populate computes a Metadata table for tree, honoring flags for whether a
// compressed size must be recorded. It reports false iff valueType is not
// one of the supported types, signaling the caller to drop the metadata
// entirely (spec.md §4.5 step 8, §4.7). A tree with no leaves yields empty
// tables and true; dropping those is left to the caller.
func Populate(tree gridio.Tree, valueType gridio.ValueType, flags compression.Flags, bloscCodec compression.BloscCodec) (*Metadata, bool) {
	if !valueType.Supported() {
		return nil, false
	}

	n := tree.LeafCount()
	md := &Metadata{MaskBytes: make([]byte, n)}
	needsSize := flags.Has(compression.Zip) || flags.Has(compression.Blosc)
	if needsSize {
		md.CompressedSize = make([]uint64, n)
	}

	var wg sync.WaitGroup
	indices := make(chan int)
	for w := 0; w < leafWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				populateOne(tree, i, md, flags, bloscCodec, needsSize)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return md, true
}

func populateOne(tree gridio.Tree, i int, md *Metadata, flags compression.Flags, bloscCodec compression.BloscCodec, needsSize bool) {
	leaf := tree.Leaf(i)
	md.MaskBytes[i] = maskDescriptorByte(leaf)
	if !needsSize {
		return
	}
	var buf bytes.Buffer
	if err := leaf.WriteBuffers(&buf, uint32(flags), bloscCodec); err != nil {
		return
	}
	md.CompressedSize[i] = uint64(buf.Len()) + sizeHeaderBytes
}

// maskDescriptorByte derives one byte from the leaf's value mask alone: 0
// when no voxel is active, 2 when every voxel is active, 1 otherwise. The
// child mask, the buffer contents, and the background value are not
// consulted.
func maskDescriptorByte(leaf gridio.Leaf) byte {
	mask := leaf.ValueMask()
	var active int
	for _, b := range mask {
		active += popcount(b)
	}
	switch {
	case active == 0:
		return 0
	case active == len(mask)*8:
		return 2
	default:
		return 1
	}
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
