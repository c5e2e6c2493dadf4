// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package archive implements the binary archive format for sparse
// volumetric grids: a versioned header, a seekable grid-offset table, and
// per-grid instancing, compression, and delayed-load metadata (spec.md
// §1-§4).
package archive

import (
	"os"

	"go.uber.org/zap"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
)

// delayedLoadDisableEnv mirrors the original's OPENVDB_DISABLE_DELAYED_LOAD
// escape hatch, supplemented per SPEC_FULL.md §4.10 with a programmatic
// override so callers that embed the library don't need to touch the
// process environment to disable it in tests.
const delayedLoadDisableEnv = "OPENVDB_DISABLE_DELAYED_LOAD"

// Archive holds the file-scope state threaded through every grid's read or
// write: format version, library version, identity, seekability, and
// compression/statistics policy (spec.md §3 Archive attributes).
type Archive struct {
	FileVersion    uint32
	LibMajor       uint32
	LibMinor       uint32
	UUID           string
	HasGridOffsets bool
	Seekable       bool
	Compression    compression.Flags
	BloscCodec     compression.BloscCodec
	WriteGridStats bool
	InstancingOn   bool

	// Metadata is the archive-level (file-scope) metadata map, written
	// after the header and read back before the per-grid section (spec.md
	// §6). Defaults to an empty gridio.SimpleMetadataMap.
	Metadata gridio.MetadataMap

	// Factory resolves a descriptor's type tag to a fresh Grid instance on
	// read (spec.md §4.6 read step 7).
	Factory gridio.Factory

	// Logger receives warnings the archive would otherwise swallow (a
	// future file version, a failed memory map that falls back to a
	// regular read). Defaults to zap's no-op logger.
	Logger *zap.SugaredLogger

	delayedLoadOverride *bool // nil: defer to the environment variable
}

// New returns an Archive configured to write the current file format, with
// BLOSC+ACTIVE_MASK compression, instancing and grid-stats enabled, and a
// no-op logger (spec.md §3 defaults).
func New(opts ...Option) *Archive {
	a := &Archive{
		FileVersion:    CurrentFileVersion,
		LibMajor:       CurrentLibraryMajor,
		LibMinor:       CurrentLibraryMinor,
		Seekable:       true,
		Compression:    compression.Default(true),
		BloscCodec:     compression.BloscLZ4,
		WriteGridStats: true,
		InstancingOn:   true,
		Metadata:       gridio.NewSimpleMetadataMap(),
		Logger:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Clone returns a copy of a: every scalar field is copied, while the
// Factory, Logger, and archive-level Metadata map are shared with a
// (SPEC_FULL.md §4.10).
func (a *Archive) Clone() *Archive {
	c := *a
	return &c
}

func (a *Archive) warnf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Warnf(format, args...)
	}
}

// IsDelayedLoadingEnabled reports whether delayed loading should be used for
// this archive: a programmatic override (SetDelayedLoadingEnabled) wins when
// set, otherwise the OPENVDB_DISABLE_DELAYED_LOAD environment variable
// disables it when non-empty, otherwise delayed loading is enabled
// (SPEC_FULL.md §4.10).
func (a *Archive) IsDelayedLoadingEnabled() bool {
	if a.delayedLoadOverride != nil {
		return *a.delayedLoadOverride
	}
	return os.Getenv(delayedLoadDisableEnv) == ""
}

// SetDelayedLoadingEnabled installs a programmatic override for
// IsDelayedLoadingEnabled, taking precedence over the environment variable.
func (a *Archive) SetDelayedLoadingEnabled(enabled bool) {
	a.delayedLoadOverride = &enabled
}
