// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

// File-format version thresholds (spec.md §4.4, §4.6). The exact historical
// numbers are this library's own scheme, but the ordering and the behavior
// each threshold gates matches spec.md precisely.
const (
	// versionLibraryAndUUID is the version at which the 3-word legacy
	// version encoding gave way to explicit library major/minor fields,
	// and at which the 36-byte hyphenated UUID layout replaced the 16
	// raw bytes (spec.md §4.4 read steps 2,3,6).
	versionLibraryAndUUID uint32 = 211

	// versionGridOffsets is the version at which the has-grid-offsets byte
	// was added to the header (spec.md §4.4 read step 4, §3 invariant).
	// It is also the version below which grids have no independent name
	// metadata fallback (spec.md §4.6 read step 12, "no-gridmap").
	versionGridOffsets uint32 = 212

	// versionGridInstancing is the version at which instance grids (a
	// descriptor naming a parent) were introduced, changing per-grid read
	// order from topology-then-transform to transform-then-topology
	// (spec.md §4.6 read steps 10-11).
	versionGridInstancing uint32 = 216

	// versionSelectiveCompression is the start of the range in which a
	// single isCompressed byte (not a full flag word) selects between
	// {ZIP} and {NONE} (spec.md §4.4 read step 5).
	versionSelectiveCompression uint32 = 220

	// versionNodeMaskCompression ends the selective-compression range and
	// is the version at which full 32-bit per-grid compression flags were
	// introduced (spec.md §4.4 read step 5, §4.6 read step 1).
	versionNodeMaskCompression uint32 = 222

	// versionBloscCompression is the version at which BLOSC became an
	// available compression bit; file versions below it never carry
	// BLOSC, and their compression is forced to {ZIP, ACTIVE_MASK}
	// (spec.md §3 invariant, §4.4 read step 5).
	versionBloscCompression uint32 = 223

	// CurrentFileVersion is the newest format version this library
	// writes and fully understands on read.
	CurrentFileVersion uint32 = 224
)

// CurrentLibraryMajor and CurrentLibraryMinor are this library's own
// version, written into every archive header (spec.md §3 Archive
// attributes).
const (
	CurrentLibraryMajor uint32 = 11
	CurrentLibraryMinor uint32 = 0
)
