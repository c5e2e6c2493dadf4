// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"bytes"
	"fmt"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
)

// gridStats holds the write-time statistics inserted into a grid's shallow
// clone when WriteGridStats is enabled (spec.md §4.5 step 9).
type gridStats struct {
	bboxMin, bboxMax [3]int32
	memBytes         uint64
	voxelCount       uint64
}

// computeGridStats walks tree's leaves to accumulate a bounding box of leaf
// origins, the total size of the leaf buffers as encoded under flags and
// codec, and an active-voxel count. It never
// fails: an empty tree yields a zeroed box and a voxel count of zero.
func computeGridStats(tree gridio.Tree, flags compression.Flags, codec compression.BloscCodec) gridStats {
	var s gridStats
	n := tree.LeafCount()
	for i := 0; i < n; i++ {
		leaf := tree.Leaf(i)
		origin := leaf.Origin()
		if i == 0 {
			s.bboxMin, s.bboxMax = origin, origin
		} else {
			for a := 0; a < 3; a++ {
				if origin[a] < s.bboxMin[a] {
					s.bboxMin[a] = origin[a]
				}
				if origin[a] > s.bboxMax[a] {
					s.bboxMax[a] = origin[a]
				}
			}
		}
		for _, b := range leaf.ValueMask() {
			s.voxelCount += uint64(popcountByte(b))
		}

		var buf bytes.Buffer
		if err := leaf.WriteBuffers(&buf, uint32(flags), codec); err == nil {
			s.memBytes += uint64(buf.Len())
		}
	}
	return s
}

func popcountByte(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// compressionDescription returns the human-readable string stored under
// file_compression (spec.md §4.5 step 9).
func compressionDescription(flags compression.Flags, codec compression.BloscCodec) string {
	switch {
	case flags.Has(compression.Blosc) && codec == compression.BloscZstd:
		return "blosc(zstd)"
	case flags.Has(compression.Blosc):
		return "blosc(lz4)"
	case flags.Has(compression.Zip):
		return "zip"
	default:
		return "none"
	}
}

// parseBloscCodecFromDescription recovers which BloscCodec wrote a grid's
// buffers from its recorded file_compression string (spec.md §4.5 step 9,
// §6), since the BLOSC bit alone doesn't say which internal codec backed
// it. Reports false if the string is absent or names no BLOSC codec, in
// which case the caller falls back to its own configured default.
func parseBloscCodecFromDescription(desc string) (compression.BloscCodec, bool) {
	switch desc {
	case "blosc(zstd)":
		return compression.BloscZstd, true
	case "blosc(lz4)":
		return compression.BloscLZ4, true
	default:
		return 0, false
	}
}

func formatVec3i32(v [3]int32) string {
	return fmt.Sprintf("(%d, %d, %d)", v[0], v[1], v[2])
}
