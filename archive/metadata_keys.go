// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

// Reserved grid-metadata keys the archive itself reads or writes (spec.md
// §6 "Reserved metadata keys"). Everything else in a grid's metadata map is
// opaque and passes through untouched.
const (
	MetaClass              = "class"
	MetaCreator            = "creator"
	MetaName                = "name"
	MetaIsSavedAsHalfFloat  = "is_saved_as_half_float"
	MetaIsLocalSpace        = "is_local_space"
	MetaVectorType          = "vector_type"
	MetaFileBBoxMin         = "file_bbox_min"
	MetaFileBBoxMax         = "file_bbox_max"
	MetaFileCompression     = "file_compression"
	MetaFileMemBytes        = "file_mem_bytes"
	MetaFileVoxelCount      = "file_voxel_count"
	MetaFileDelayedLoad     = "file_delayed_load"
)

// Vector-type strings (spec.md §6).
const (
	VectorInvariant            = "invariant"
	VectorCovariant            = "covariant"
	VectorCovariantNormalize   = "covariant normalize"
	VectorContravariantRel     = "contravariant relative"
	VectorContravariantAbs     = "contravariant absolute"
)
