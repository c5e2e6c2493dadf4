// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package vdbarchive implements a binary archive format for collections of
// sparse volumetric grids. The actual reader/writer lives in the archive
// subpackage; this package exists to hold the module-level doc comment.
//
// An archive is a versioned header (magic, file version, library version,
// UUID, an optional grid-offset table flag) followed by an archive-level
// metadata map, a grid count, and then each grid's own descriptor, metadata,
// transform, topology, and voxel buffers in turn.
//
// Grids that share one underlying tree are written once, as a primary, and
// every subsequent grid sharing that tree is written as an instance: a
// descriptor naming its parent, with no topology or buffer section of its
// own. Reading reconnects instances to their parents in a pass after every
// grid has been read.
//
// Compression is negotiated per grid: ZIP and BLOSC are mutually exclusive
// byte-stream codecs, ACTIVE_MASK is a mask-only transform applied before
// either, and LEVEL_SET/FOG_VOLUME grids always lose the ZIP bit in favor of
// ACTIVE_MASK, which compresses their sparse narrow bands far better.
//
// Delayed loading, when enabled, records per-leaf DelayedLoadMetadata at
// write time and makes ReadGridsFromFile read the archive through a memory
// map of the file. Leaf buffers are still decoded in full while the grids
// are read; no leaf defers its buffer until access. The mapping is
// reference-counted (Acquire/Release), so a holder of a reference keeps it
// alive after the read returns.
//
// On-disk layout:
//   - file magic ("OPENVDB" + a NUL byte)
//   - file version, library major/minor, has-grid-offsets byte, UUID
//   - archive-level metadata map
//   - grid count
//   - per grid: descriptor, three offsets, compression flags, metadata,
//     transform, topology (primary only), buffers (primary only)
//
// TODO(vdbarchive): writing new format versions is out of scope; this
// library always writes the current version and reads back to the oldest
// version this format's history has carried.
package vdbarchive
