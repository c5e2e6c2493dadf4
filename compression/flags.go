// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compression implements the archive's compression flag bitset and
// the byte-stream codecs backing its ZIP and BLOSC bits (spec.md §3, §4.9).
package compression

// Flags is the compression bitset persisted at archive and grid scope.
// Bits combine freely; ACTIVE_MASK is a pure bit-mask transform with no
// byte-stream codec of its own.
type Flags uint32

const (
	None       Flags = 0
	Zip        Flags = 1 << 0
	ActiveMask Flags = 1 << 1
	Blosc      Flags = 1 << 2
)

// Has reports whether all bits in want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Default returns BLOSC|ACTIVE_MASK if blosc is available, else
// ZIP|ACTIVE_MASK. ZIP is always available in this package, so ACTIVE_MASK
// alone is never returned.
func Default(bloscAvailable bool) Flags {
	if bloscAvailable {
		return Blosc | ActiveMask
	}
	return Zip | ActiveMask
}

// WithoutZipForClass clears the ZIP bit for grid classes that compress
// poorly under generic zip (spec.md §4.5 step 7, §8 law 6): LEVEL_SET and
// FOG_VOLUME grids always lose the ZIP bit, regardless of the
// archive-level setting, in favor of the ACTIVE_MASK transform.
func (f Flags) WithoutZipForClass(isLevelSetOrFog bool) Flags {
	if isLevelSetOrFog {
		return f &^ Zip
	}
	return f
}
