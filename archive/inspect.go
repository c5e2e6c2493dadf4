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
)

// GridSummary is one grid's descriptor and negotiated compression, without
// its metadata map, transform, topology, or buffers (SPEC_FULL.md §4.9: a
// read-only inspector that never materializes voxel data).
type GridSummary struct {
	Name             string
	TypeTag          string
	HalfFloat        bool
	IsInstance       bool
	InstanceParent   string
	Compression      compression.Flags
	GridStartOffset  int64
	BlockStartOffset int64
	EndOffset        int64
}

// Inspect reads an archive's header and every grid's descriptor, seeking
// past each grid's body via its recorded end offset. It requires a
// seekable, has-grid-offsets archive; anything else returns an error, since
// skipping a grid's body without decoding it depends entirely on that
// offset table.
func (a *Archive) Inspect(r io.ReadSeeker) ([]GridSummary, error) {
	carrier := metacarrier.NewReaderCarrier(r)
	if _, err := a.ReadHeader(carrier); err != nil {
		return nil, errors.WithMessage(err, "archive: reading header")
	}
	if !a.HasGridOffsets {
		return nil, errors.New("archive: inspect requires an archive with grid offsets")
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

	summaries := make([]GridSummary, 0, count)
	for i := uint32(0); i < count; i++ {
		var desc griddesc.Descriptor
		if err := desc.ReadHeader(carrier); err != nil {
			return nil, errors.WithMessagef(err, "archive: reading descriptor header for grid %d", i)
		}
		if err := desc.ReadOffsets(carrier); err != nil {
			return nil, errors.WithMessagef(err, "archive: reading descriptor offsets for grid %d", i)
		}

		var flags compression.Flags
		if a.FileVersion >= versionNodeMaskCompression {
			raw, err := readUint32(carrier)
			if err != nil {
				return nil, errors.Wrap(err, "archive: reading grid compression")
			}
			flags = compression.Flags(raw)
		}

		summaries = append(summaries, GridSummary{
			Name:             desc.Name,
			TypeTag:          desc.TypeTag,
			HalfFloat:        desc.HalfFloat,
			IsInstance:       desc.IsInstance(),
			InstanceParent:   desc.InstanceParent,
			Compression:      flags,
			GridStartOffset:  desc.GridStartOffset,
			BlockStartOffset: desc.BlockStartOffset,
			EndOffset:        desc.EndOffset,
		})

		if _, err := r.Seek(desc.EndOffset, io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "archive: seeking past grid %d", i)
		}
	}
	return summaries, nil
}
