// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"go.uber.org/zap"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
)

// Option configures an Archive at construction time, following the
// teacher's CreateOption/OpenOption functional-options pattern.
type Option func(*Archive)

// WithLogger installs a *zap.SugaredLogger to receive future-file-version
// and memory-map-fallback warnings.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Archive) { a.Logger = l }
}

// WithFactory installs the grid-type factory used to resolve a descriptor's
// type tag into a fresh Grid on read.
func WithFactory(f gridio.Factory) Option {
	return func(a *Archive) { a.Factory = f }
}

// WithSeekable sets whether the archive maintains a grid-offset table,
// trading a small write-time overhead for random-access reads (spec.md §3).
func WithSeekable(seekable bool) Option {
	return func(a *Archive) { a.Seekable = seekable }
}

// WithCompression overrides the default BLOSC+ACTIVE_MASK compression flags.
func WithCompression(flags compression.Flags) Option {
	return func(a *Archive) { a.Compression = flags }
}

// WithBloscCodec selects which composite codec backs the BLOSC compression
// bit (spec.md §4.9).
func WithBloscCodec(codec compression.BloscCodec) Option {
	return func(a *Archive) { a.BloscCodec = codec }
}

// WithGridStats enables or disables per-grid statistics metadata
// (bounding-box min/max, mem bytes, voxel count, compression description)
// written at write time (spec.md §4.5 step 9).
func WithGridStats(enabled bool) Option {
	return func(a *Archive) { a.WriteGridStats = enabled }
}

// WithInstancing enables or disables instancing. On write, when disabled,
// grids sharing a tree are each written as a primary with their own
// topology and buffers. On read, when disabled, every descriptor gets a
// deep-copied tree even if it names an instance parent (spec.md §4.6).
func WithInstancing(enabled bool) Option {
	return func(a *Archive) { a.InstancingOn = enabled }
}

// WithDelayedLoading sets the programmatic delayed-load override up front,
// equivalent to calling SetDelayedLoadingEnabled after New.
func WithDelayedLoading(enabled bool) Option {
	return func(a *Archive) { a.SetDelayedLoadingEnabled(enabled) }
}
