// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"io"

	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/griddesc"
	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/metacarrier"
	"github.com/Mu-L/vdbarchive/streammeta"
)

// libraryPredatesDelayedLoadFix reports whether (major, minor) predates
// library release 6.2, the version at which a bug that could leave stale
// DelayedLoadMetadata behind after a round trip was fixed (spec.md §4.6
// read step 6).
func libraryPredatesDelayedLoadFix(major, minor uint32) bool {
	if major != 6 {
		return major < 6
	}
	return minor < 2
}

// ReadGrids parses the archive header, the archive-level metadata map, and
// every grid, then reconnects instances to their parents (spec.md §4.4
// read, §4.6). r need not be seekable; seekable archives only use their
// offset table for random access, which ReadGrids does not exploit (it
// reads every grid in file order).
func (a *Archive) ReadGrids(r io.Reader) ([]gridio.Grid, error) {
	carrier := metacarrier.NewReaderCarrier(r)
	if _, err := a.ReadHeader(carrier); err != nil {
		return nil, errors.WithMessage(err, "archive: reading header")
	}

	archiveMeta := gridio.NewSimpleMetadataMap()
	if _, err := archiveMeta.ReadFrom(carrier); err != nil {
		return nil, errors.WithMessage(err, "archive: reading archive-level metadata")
	}
	a.Metadata = archiveMeta

	count, err := readUint32(carrier)
	if err != nil {
		return nil, errors.WithMessage(err, "archive: reading grid count")
	}

	fileMeta := streammeta.New()
	fileMeta.FileVersion = a.FileVersion
	fileMeta.LibMajor = a.LibMajor
	fileMeta.LibMinor = a.LibMinor
	fileMeta.Seekable = a.HasGridOffsets
	fileMeta.Bind(carrier, true)

	grids := make([]gridio.Grid, 0, count)
	descs := make([]*griddesc.Descriptor, 0, count)
	byName := map[string]gridio.Grid{}

	for i := uint32(0); i < count; i++ {
		g, desc, err := a.readGrid(carrier, fileMeta)
		if err != nil {
			return nil, errors.WithMessagef(err, "archive: reading grid %d", i)
		}
		grids = append(grids, g)
		descs = append(descs, desc)
		byName[desc.Name] = g
	}

	if err := a.reconnectInstances(grids, descs, byName); err != nil {
		return nil, err
	}
	return grids, nil
}

// readGrid implements spec.md §4.6 steps 1-12 for one grid.
func (a *Archive) readGrid(carrier metacarrier.Carrier, fileMeta *streammeta.Metadata) (gridio.Grid, *griddesc.Descriptor, error) {
	var desc griddesc.Descriptor
	if err := desc.ReadHeader(carrier); err != nil {
		return nil, nil, errors.WithMessage(err, "reading descriptor header")
	}
	if err := desc.ReadOffsets(carrier); err != nil {
		return nil, nil, errors.WithMessage(err, "reading descriptor offsets")
	}

	// Step 1: per-grid compression.
	var gridFlags compression.Flags
	if a.FileVersion >= versionNodeMaskCompression {
		raw, err := readUint32(carrier)
		if err != nil {
			return nil, nil, errors.Wrap(err, "reading grid compression")
		}
		gridFlags = compression.Flags(raw)
	} else {
		gridFlags = a.Compression
	}

	// Step 2: scope-exit guard.
	restore := streammeta.ScopeGuard(carrier)
	defer restore()

	// Step 3: clone, bind, half-float from the grid.
	gridMeta := fileMeta.Clone()
	gridMeta.Compression = uint32(gridFlags)
	gridMeta.HalfFloat = desc.HalfFloat
	// Step 4: grid-class and background become grid-local.
	gridMeta.GridClass = gridio.ClassUnknown
	gridMeta.Background = nil
	gridMeta.Bind(carrier, true)

	g, ok := a.lookupGrid(desc.TypeTag)
	if !ok {
		return nil, nil, ErrUnregisteredGridType
	}

	// Step 5: grid metadata.
	if _, err := g.Metadata().ReadFrom(carrier); err != nil {
		return nil, nil, errors.WithMessage(err, "reading grid metadata")
	}

	// Step 6: strip stale delayed-load metadata from old writers.
	if libraryPredatesDelayedLoadFix(a.LibMajor, a.LibMinor) {
		g.Metadata().Delete(MetaFileDelayedLoad)
	}

	// Restore the grid's class from its "class" metadata key, the
	// counterpart to writeGrid's step 8 (spec.md §6 reserved keys, §8 S1
	// "class metadata = 'fog volume'").
	if classStr, ok := g.Metadata().GetString(MetaClass); ok {
		g.SetClass(gridio.ParseClass(classStr))
	}

	// Step 7: snapshot grid metadata into stream metadata, set grid-class.
	gridMeta.GridMetadata = g.Metadata()
	gridMeta.GridClass = g.Class()

	// A grid's recorded file_compression (step 9 at write time) names which
	// BLOSC codec actually wrote its buffers; prefer it over the archive's
	// own configured default so a reader can decode a grid written with a
	// different BloscCodec than the one it's currently set to use.
	bloscCodec := a.BloscCodec
	if desc, ok := g.Metadata().GetString(MetaFileCompression); ok {
		if c, ok := parseBloscCodecFromDescription(desc); ok {
			bloscCodec = c
		}
	}

	// Step 8: reset leaf counter.
	gridMeta.LeafCount = 0

	// Step 9: strip DelayedLoadMetadata unless the test hook is set.
	defer func() {
		if !gridMeta.TestHook {
			g.Metadata().Delete(MetaFileDelayedLoad)
		}
	}()

	if a.FileVersion >= versionGridInstancing {
		// Step 10: transform first; instances stop here.
		if _, err := g.Transform().ReadFrom(carrier); err != nil {
			return nil, nil, errors.WithMessage(err, "reading transform")
		}
		if desc.IsInstance() {
			return g, &desc, nil
		}
		if err := g.Tree().ReadTopology(carrier); err != nil {
			return nil, nil, errors.WithMessage(err, "reading topology")
		}
		if err := a.readBuffers(carrier, g, gridFlags, bloscCodec); err != nil {
			return nil, nil, err
		}
	} else {
		// Step 11: legacy order: topology, transform, buffers.
		if err := g.Tree().ReadTopology(carrier); err != nil {
			return nil, nil, errors.WithMessage(err, "reading topology")
		}
		if _, err := g.Transform().ReadFrom(carrier); err != nil {
			return nil, nil, errors.WithMessage(err, "reading transform")
		}
		if err := a.readBuffers(carrier, g, gridFlags, bloscCodec); err != nil {
			return nil, nil, err
		}
	}

	// Step 12: pre-no-gridmap files fall back to the descriptor's name.
	if a.FileVersion < versionGridOffsets {
		if _, hasName := g.Metadata().GetString(MetaName); !hasName {
			g.Metadata().SetString(MetaName, desc.Name)
		}
	}

	return g, &desc, nil
}

func (a *Archive) readBuffers(carrier metacarrier.Carrier, g gridio.Grid, flags compression.Flags, bloscCodec compression.BloscCodec) error {
	if err := g.Tree().ReadBuffers(carrier, uint32(flags), bloscCodec, nil); err != nil {
		return errors.WithMessage(err, "reading buffers")
	}
	return nil
}

func (a *Archive) lookupGrid(typeTag string) (gridio.Grid, bool) {
	if a.Factory == nil {
		return nil, false
	}
	return a.Factory.New(typeTag)
}

// reconnectInstances implements spec.md §4.6 "Instance reconnection": for
// every descriptor naming an instance parent, locate the parent by unique
// name and share (or deep-copy) its tree.
func (a *Archive) reconnectInstances(grids []gridio.Grid, descs []*griddesc.Descriptor, byName map[string]gridio.Grid) error {
	for i, desc := range descs {
		if !desc.IsInstance() {
			continue
		}
		parent, ok := byName[desc.InstanceParent]
		if !ok {
			return errors.Wrapf(ErrMissingInstanceParent, "instance %q wants parent %q", desc.Name, desc.InstanceParent)
		}
		if a.InstancingOn {
			grids[i].SetTree(parent.Tree())
		} else {
			grids[i].DeepCopyTree(parent.Tree())
		}
	}
	return nil
}
