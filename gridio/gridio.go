// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gridio declares the narrow interfaces the archive engine needs
// from a grid's tree/leaf/voxel data structures. The structures themselves
// (and the metadata value types beyond their serialization) are external
// collaborators: this package only names the read/write-topology/buffers
// surface the archive drives.
package gridio

import (
	"io"

	"github.com/Mu-L/vdbarchive/compression"
)

// Class is the grid-class hint persisted alongside a grid.
type Class byte

// Recognized grid classes, serialized via their lowercase human name.
const (
	ClassUnknown Class = iota
	ClassLevelSet
	ClassFogVolume
	ClassStaggered
)

// String returns the on-disk human name for the class.
func (c Class) String() string {
	switch c {
	case ClassLevelSet:
		return "level set"
	case ClassFogVolume:
		return "fog volume"
	case ClassStaggered:
		return "staggered"
	default:
		return "unknown"
	}
}

// ParseClass parses a class's on-disk human name.
func ParseClass(s string) Class {
	switch s {
	case "level set":
		return ClassLevelSet
	case "fog volume":
		return ClassFogVolume
	case "staggered":
		return ClassStaggered
	default:
		return ClassUnknown
	}
}

// ValueType identifies the scalar/vector type stored in a grid's leaves.
// Only these types are supported by delayed-load metadata population
// (spec.md §4.7); every other value type causes population to report false.
type ValueType int

const (
	ValueUnknown ValueType = iota
	ValueInt32
	ValueInt64
	ValueFloat
	ValueDouble
	ValueVec3Int
	ValueVec3Float
	ValueVec3Double
)

// Supported reports whether t is one of the types delayed-load metadata
// population understands.
func (t ValueType) Supported() bool {
	switch t {
	case ValueInt32, ValueInt64, ValueFloat, ValueDouble,
		ValueVec3Int, ValueVec3Float, ValueVec3Double:
		return true
	default:
		return false
	}
}

// MetadataMap is the opaque, string-keyed metadata carried by a grid or an
// archive. Its value encoding is delegated (spec.md §1); the archive only
// needs to read and write the map as a unit and snapshot/restore it.
type MetadataMap interface {
	// WriteTo serializes the map as a sequence of (name, type-tag, length,
	// value) tuples.
	WriteTo(w io.Writer) (int64, error)
	// ReadFrom replaces the map's contents by reading tuples from r.
	ReadFrom(r io.Reader) (int64, error)
	// Clone returns an independent copy.
	Clone() MetadataMap
	// GetString returns a string-valued entry, if present.
	GetString(key string) (string, bool)
	// SetString sets a string-valued entry.
	SetString(key, value string)
	// GetValue returns an opaque-valued entry, if present. Used for
	// reserved keys the archive itself never interprets, such as
	// file_delayed_load, file_mem_bytes, and file_voxel_count.
	GetValue(key string) (any, bool)
	// SetValue sets an opaque-valued entry.
	SetValue(key string, value any)
	// Delete removes an entry if present.
	Delete(key string)
	// Has reports whether key is present.
	Has(key string) bool
}

// Leaf is the lowest-level node containing a dense voxel buffer.
type Leaf interface {
	// Origin returns the leaf's minimum index-space coordinate, used to
	// accumulate a grid's on-disk bounding-box statistics.
	Origin() [3]int32
	// ValueMask returns the per-voxel active-mask bytes for this leaf.
	ValueMask() []byte
	// ChildMask returns the (always empty, for a leaf) child mask bytes.
	ChildMask() []byte
	// Background returns the grid's background value, opaque to the archive.
	Background() any
	// WriteBuffers writes this leaf's voxel buffer, honoring compression
	// and, when the BLOSC bit is set, bloscCodec.
	WriteBuffers(w io.Writer, compression uint32, bloscCodec compression.BloscCodec) error
	// ReadBuffers reads this leaf's voxel buffer, honoring compression and
	// bloscCodec.
	ReadBuffers(r io.Reader, compression uint32, bloscCodec compression.BloscCodec) error
}

// Tree is the hierarchical sparse container of voxels. Identity (pointer
// equality) matters for instance detection: two grids that were built by
// sharing one Tree instance must be written as an instance pair, and after
// a round-trip under instancing they must again share one Tree.
type Tree interface {
	// LeafCount returns the number of leaves in index order.
	LeafCount() int
	// Leaf returns the leaf at index i, in a stable iteration order.
	Leaf(i int) Leaf
	// WriteTopology writes the tree's node structure (no voxel buffers).
	WriteTopology(w io.Writer) error
	// ReadTopology reads the tree's node structure (no voxel buffers).
	ReadTopology(r io.Reader) error
	// WriteBuffers writes every leaf's voxel buffer, honoring compression
	// and, when the BLOSC bit is set, bloscCodec.
	WriteBuffers(w io.Writer, compression uint32, bloscCodec compression.BloscCodec) error
	// ReadBuffers reads every leaf's voxel buffer, optionally clipped to a
	// bounding box described by clip (nil means no clip), honoring
	// compression and bloscCodec.
	ReadBuffers(r io.Reader, compression uint32, bloscCodec compression.BloscCodec, clip any) error
}

// Transform is a grid's opaque world-to-index mapping.
type Transform interface {
	WriteTo(w io.Writer) (int64, error)
	ReadFrom(r io.Reader) (int64, error)
}

// Grid is the sparse volumetric dataset the archive reads and writes. Its
// tree, transform, and metadata are consumed only through these methods;
// everything else about a grid (its registry type tag, its value semantics)
// is opaque to the archive.
type Grid interface {
	// Name returns the grid's own idea of its name, from its metadata ("name").
	Name() string
	// TypeTag returns the registered type name used to look the grid up in
	// the grid-type factory on read.
	TypeTag() string
	// Class returns the grid's class hint.
	Class() Class
	// SetClass installs the grid's class hint, used on read once the
	// "class" metadata key has been decoded (spec.md §6 reserved keys).
	SetClass(c Class)
	// ValueType reports the scalar/vector type stored in the tree's leaves.
	ValueType() ValueType
	// Tree returns the grid's tree. Two grids sharing the same Tree pointer
	// (by identity, not structural equality) are instances of one another.
	Tree() Tree
	// SetTree installs tree as the grid's tree, used when reconnecting an
	// instance to its parent's tree on read.
	SetTree(t Tree)
	// Transform returns the grid's transform.
	Transform() Transform
	// Metadata returns the grid's metadata map.
	Metadata() MetadataMap
	// ShallowClone returns a new Grid sharing this grid's Tree by reference
	// but with an independent Metadata map, so the archive can stash
	// transient write-time metadata (stats, delayed-load info) without
	// mutating the caller's grid.
	ShallowClone() Grid
	// DeepCopyTree replaces this grid's tree with a deep copy of src,
	// used when instancing is disabled on read.
	DeepCopyTree(src Tree)
}

// Factory constructs an empty Grid instance by registered type tag. It is a
// process-wide registry guarded internally by the implementation; the
// archive only consults it.
type Factory interface {
	New(typeTag string) (Grid, bool)
}
