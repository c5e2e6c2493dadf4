// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/delayedload"
	"github.com/Mu-L/vdbarchive/griddesc"
	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/metacarrier"
	"github.com/Mu-L/vdbarchive/streammeta"
)

// primaryRecord tracks the unique name and half-float flag a tree was first
// written under, so a later grid sharing that tree can be detected as its
// instance (spec.md §4.5 step 2, §9 "instance detection via tree identity").
type primaryRecord struct {
	name      string
	halfFloat bool
}

// WriteGrids writes the archive header followed by every grid in order
// (spec.md §4.4 write, §4.5). If a.Seekable is true, w must also implement
// io.Seeker so grid offsets can be back-patched once each grid's true
// extent is known.
func (a *Archive) WriteGrids(w io.Writer, grids []gridio.Grid) error {
	seeker, isSeeker := w.(io.Seeker)
	if a.Seekable && !isSeeker {
		return errors.New("archive: seekable archive requires an io.Seeker")
	}

	carrier := metacarrier.NewWriterCarrier(w)
	if err := a.WriteHeader(carrier); err != nil {
		return errors.WithMessage(err, "archive: writing header")
	}

	archiveMeta := a.Metadata
	if archiveMeta == nil {
		archiveMeta = gridio.NewSimpleMetadataMap()
	}
	if _, err := archiveMeta.WriteTo(carrier); err != nil {
		return errors.WithMessage(err, "archive: writing archive-level metadata")
	}
	nonNil := 0
	for _, g := range grids {
		if g != nil {
			nonNil++
		}
	}
	if err := writeUint32(carrier, uint32(nonNil)); err != nil {
		return errors.WithMessage(err, "archive: writing grid count")
	}

	fileMeta := streammeta.New()
	fileMeta.FileVersion = a.FileVersion
	fileMeta.LibMajor = a.LibMajor
	fileMeta.LibMinor = a.LibMinor
	fileMeta.Compression = uint32(a.Compression)
	fileMeta.BloscCodec = a.BloscCodec
	fileMeta.WriteGridStats = a.WriteGridStats
	fileMeta.Seekable = a.Seekable
	fileMeta.Bind(carrier, true)

	// Count name occurrences up front so every grid sharing a non-unique
	// name gets a suffix, not just the second-and-later ones (spec.md §4.5
	// step 1, §8 "two grids with identical non-empty names: both get
	// distinct suffixes").
	nameCount := map[string]int{}
	for _, g := range grids {
		if g != nil {
			nameCount[g.Name()]++
		}
	}
	uniqueNames := map[string]struct{}{}
	trees := map[gridio.Tree]primaryRecord{}

	for _, g := range grids {
		if g == nil {
			continue
		}
		if err := a.writeGrid(carrier, seeker, g, nameCount, uniqueNames, trees, fileMeta); err != nil {
			return err
		}
		// Step 16: restore archive-level compression, since per-grid
		// negotiation (step 7) may have cleared bits for this grid only.
		fileMeta.Compression = uint32(a.Compression)
	}
	return nil
}

// uniqueGridName computes a descriptor name for a grid named base, given a
// histogram of how many grids in this write share that base name and the
// set of names already claimed by earlier grids. It mirrors
// GridDescriptor::addSuffix(name, n) in the original: an empty name, or one
// two or more grids share, always gets a "[0]" suffix (so even the first
// occurrence of a duplicated name is renamed), and any further collision
// increments n against the grid's own base name until it is unique
// (spec.md §4.5 step 1, §8 boundary case).
func uniqueGridName(base string, nameCount map[string]int, uniqueNames map[string]struct{}) string {
	name := base
	if base == "" || nameCount[base] > 1 {
		name = addSuffix(base, 0)
	}
	for n := 1; ; n++ {
		if _, collision := uniqueNames[name]; !collision {
			break
		}
		name = addSuffix(base, n)
	}
	uniqueNames[name] = struct{}{}
	return name
}

func addSuffix(base string, n int) string {
	return fmt.Sprintf("%s[%d]", base, n)
}

func gridHalfFloat(g gridio.Grid) bool {
	s, ok := g.Metadata().GetString(MetaIsSavedAsHalfFloat)
	return ok && s == "true"
}

func isLevelSetOrFog(c gridio.Class) bool {
	return c == gridio.ClassLevelSet || c == gridio.ClassFogVolume
}

// writeGrid implements spec.md §4.5 steps 1-16 for one grid.
func (a *Archive) writeGrid(
	carrier metacarrier.Carrier,
	seeker io.Seeker,
	g gridio.Grid,
	nameCount map[string]int,
	uniqueNames map[string]struct{},
	trees map[gridio.Tree]primaryRecord,
	fileMeta *streammeta.Metadata,
) error {
	// Step 1: unique descriptor name.
	name := uniqueGridName(g.Name(), nameCount, uniqueNames)
	halfFloat := gridHalfFloat(g)

	// Step 2: instance detection via tree pointer identity.
	tree := g.Tree()
	var desc griddesc.Descriptor
	desc.Name = name
	desc.TypeTag = g.TypeTag()
	desc.HalfFloat = halfFloat

	primary, known := trees[tree]
	isInstance := known && primary.halfFloat == halfFloat && a.InstancingOn
	if isInstance {
		desc.InstanceParent = primary.name
	} else {
		trees[tree] = primaryRecord{name: name, halfFloat: halfFloat}
	}

	// Step 3: scope-exit guard, clone file-level metadata, snapshot, bind.
	restore := streammeta.ScopeGuard(carrier)
	defer restore()

	gridMeta := fileMeta.Clone()
	gridMeta.HalfFloat = halfFloat
	gridMeta.GridClass = g.Class()
	gridMeta.GridMetadata = g.Metadata()
	gridMeta.Bind(carrier, true)

	// Step 4: descriptor header.
	if err := desc.WriteHeader(carrier); err != nil {
		return errors.WithMessagef(err, "archive: writing descriptor header for %q", name)
	}

	// Step 5: placeholder offsets.
	var offsetPos int64
	if a.Seekable {
		var err error
		if offsetPos, err = seeker.Seek(0, io.SeekCurrent); err != nil {
			return errors.Wrap(err, "archive: recording offset position")
		}
	}
	if err := desc.WriteOffsets(carrier); err != nil {
		return errors.WithMessagef(err, "archive: writing placeholder offsets for %q", name)
	}

	// Step 6: record grid-start offset.
	if a.Seekable {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return errors.Wrap(err, "archive: recording grid-start offset")
		}
		desc.GridStartOffset = pos
	}

	// Step 7: per-grid compression negotiation.
	gridFlags := a.Compression.WithoutZipForClass(isLevelSetOrFog(g.Class()))
	if err := writeUint32(carrier, uint32(gridFlags)); err != nil {
		return errors.WithMessagef(err, "archive: writing grid compression for %q", name)
	}
	gridMeta.Compression = uint32(gridFlags)

	// Step 8: shallow copy, delayed-load metadata population.
	shallow := g.ShallowClone()
	shallow.Metadata().SetString(MetaClass, g.Class().String())
	if a.IsDelayedLoadingEnabled() {
		dl, ok := delayedload.Populate(tree, g.ValueType(), gridFlags, a.BloscCodec)
		if ok && len(dl.MaskBytes) > 0 {
			shallow.Metadata().SetValue(MetaFileDelayedLoad, dl)
		} else {
			shallow.Metadata().Delete(MetaFileDelayedLoad)
		}
	} else {
		shallow.Metadata().Delete(MetaFileDelayedLoad)
	}

	// Step 9: grid statistics.
	if a.WriteGridStats {
		stats := computeGridStats(tree, gridFlags, a.BloscCodec)
		shallow.Metadata().SetString(MetaFileBBoxMin, formatVec3i32(stats.bboxMin))
		shallow.Metadata().SetString(MetaFileBBoxMax, formatVec3i32(stats.bboxMax))
		shallow.Metadata().SetValue(MetaFileMemBytes, stats.memBytes)
		shallow.Metadata().SetValue(MetaFileVoxelCount, stats.voxelCount)
		shallow.Metadata().SetString(MetaFileCompression, compressionDescription(gridFlags, a.BloscCodec))
	}

	// Step 10: metadata, then transform.
	if _, err := shallow.Metadata().WriteTo(carrier); err != nil {
		return errors.WithMessagef(err, "archive: writing grid metadata for %q", name)
	}
	if _, err := g.Transform().WriteTo(carrier); err != nil {
		return errors.WithMessagef(err, "archive: writing transform for %q", name)
	}

	if isInstance {
		// Step 13: instances end here.
		return a.finishOffsets(seeker, carrier, &desc, offsetPos)
	}

	// Step 11: topology.
	if err := tree.WriteTopology(carrier); err != nil {
		return errors.WithMessagef(err, "archive: writing topology for %q", name)
	}

	// Step 12: block-start offset.
	if a.Seekable {
		pos, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return errors.Wrap(err, "archive: recording block-start offset")
		}
		desc.BlockStartOffset = pos
	}

	// Step 14: buffers.
	if err := tree.WriteBuffers(carrier, uint32(gridFlags), a.BloscCodec); err != nil {
		return errors.WithMessagef(err, "archive: writing buffers for %q", name)
	}

	return a.finishOffsets(seeker, carrier, &desc, offsetPos)
}

// finishOffsets implements spec.md §4.5 step 15: record the end offset and,
// if seekable, back-patch the three offsets recorded at offsetPos.
func (a *Archive) finishOffsets(seeker io.Seeker, carrier metacarrier.Carrier, desc *griddesc.Descriptor, offsetPos int64) error {
	if !a.Seekable {
		return nil
	}
	end, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "archive: recording end offset")
	}
	desc.EndOffset = end

	if _, err := seeker.Seek(offsetPos, io.SeekStart); err != nil {
		return errors.Wrap(err, "archive: seeking back to patch offsets")
	}
	if err := desc.WriteOffsets(carrier); err != nil {
		return errors.Wrap(err, "archive: back-patching offsets")
	}
	if _, err := seeker.Seek(end, io.SeekStart); err != nil {
		return errors.Wrap(err, "archive: seeking to end of grid")
	}
	return nil
}
