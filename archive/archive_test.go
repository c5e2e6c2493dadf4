// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mu-L/vdbarchive/archive"
	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/griddesc"
	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/gridiotest"
)

const floatGridType = "Vec3SGrid"

func newFactory() *gridiotest.Factory {
	f := gridiotest.NewFactory()
	_ = f.Register(floatGridType, func() gridio.Grid {
		return gridiotest.NewGrid("", floatGridType, gridio.ClassUnknown, gridio.ValueFloat, &gridiotest.Tree{}, &gridiotest.Transform{})
	})
	return f
}

func sampleGrid(name string) *gridiotest.Grid {
	tree := &gridiotest.Tree{Leaves: []*gridiotest.Leaf{
		gridiotest.NewLeaf([3]int32{0, 0, 0}, []byte("leaf-zero-data")),
		gridiotest.NewLeaf([3]int32{8, 0, 0}, []byte("leaf-one-data!!")),
	}}
	transform := &gridiotest.Transform{ID: "uniform:0.1"}
	return gridiotest.NewGrid(name, floatGridType, gridio.ClassFogVolume, gridio.ValueFloat, tree, transform)
}

func writeAndRead(t *testing.T, a *archive.Archive, grids []gridio.Grid) []gridio.Grid {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, a.WriteGrids(newSeekBuffer(&buf), grids))

	reader := a.Clone()
	reader.Factory = a.Factory
	got, err := reader.ReadGrids(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return got
}

// seekBuffer adapts a *bytes.Buffer into an io.WriteSeeker by tracking a
// cursor over an in-memory byte slice, since bytes.Buffer itself has no
// Seek method.
type seekBuffer struct {
	buf    *bytes.Buffer
	data   []byte
	cursor int64
}

func newSeekBuffer(buf *bytes.Buffer) *seekBuffer { return &seekBuffer{buf: buf} }

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.cursor + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	copy(s.data[s.cursor:end], p)
	s.cursor = end
	s.buf.Reset()
	s.buf.Write(s.data)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.cursor = offset
	case 1:
		s.cursor += offset
	case 2:
		s.cursor = int64(len(s.data)) + offset
	}
	return s.cursor, nil
}

func TestHeaderRoundTrip(t *testing.T) {
	a := archive.New()
	var buf bytes.Buffer
	require.NoError(t, a.WriteHeader(&buf))

	reader := archive.New()
	changed, err := reader.ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, a.UUID, reader.UUID)
	require.Equal(t, archive.CurrentFileVersion, reader.FileVersion)
}

func TestNotAVdbFile(t *testing.T) {
	a := archive.New()
	zeroed := bytes.Repeat([]byte{0}, 64)
	_, err := a.ReadHeader(bytes.NewReader(zeroed))
	require.ErrorIs(t, err, archive.ErrNotAVdbFile)
}

func TestSingleGridRoundTrip(t *testing.T) {
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory))
	grid := sampleGrid("density")

	got := writeAndRead(t, a, []gridio.Grid{grid})
	require.Len(t, got, 1)
	require.Equal(t, floatGridType, got[0].TypeTag())

	gotTree := got[0].Tree().(*gridiotest.Tree)
	require.Len(t, gotTree.Leaves, 2)
	require.Equal(t, []byte("leaf-zero-data"), gotTree.Leaves[0].Data())
	require.Equal(t, []byte("leaf-one-data!!"), gotTree.Leaves[1].Data())

	require.Equal(t, gridio.ClassFogVolume, got[0].Class())
	classStr, ok := got[0].Metadata().GetString(archive.MetaClass)
	require.True(t, ok)
	require.Equal(t, "fog volume", classStr)
}

func TestDuplicateGridNamesBothGetSuffixed(t *testing.T) {
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory))

	first := sampleGrid("density")
	second := gridiotest.NewGrid("density", floatGridType, gridio.ClassFogVolume, gridio.ValueFloat, &gridiotest.Tree{
		Leaves: []*gridiotest.Leaf{gridiotest.NewLeaf([3]int32{0, 0, 0}, []byte("other-leaf-data"))},
	}, &gridiotest.Transform{ID: "uniform:0.2"})

	var buf bytes.Buffer
	require.NoError(t, a.WriteGrids(newSeekBuffer(&buf), []gridio.Grid{first, second}))

	inspector := a.Clone()
	summaries, err := inspector.Inspect(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Both grids share the base name "density": spec.md §4.5 step 1 and §8's
	// boundary case require both to be suffixed, not just the second one.
	require.Equal(t, "density[0]", summaries[0].Name)
	require.Equal(t, "density[1]", summaries[1].Name)
}

func TestInstanceSharing(t *testing.T) {
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory))

	primary := sampleGrid("primary")
	instance := gridiotest.NewGrid("instance", floatGridType, gridio.ClassFogVolume, gridio.ValueFloat, primary.Tree(), primary.Transform())

	got := writeAndRead(t, a, []gridio.Grid{primary, instance})
	require.Len(t, got, 2)
	require.Same(t, got[0].Tree(), got[1].Tree())
}

func TestInstanceSharingDisabled(t *testing.T) {
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory), archive.WithInstancing(false))

	primary := sampleGrid("primary")
	instance := gridiotest.NewGrid("instance", floatGridType, gridio.ClassFogVolume, gridio.ValueFloat, primary.Tree(), primary.Transform())

	got := writeAndRead(t, a, []gridio.Grid{primary, instance})
	require.Len(t, got, 2)
	require.NotSame(t, got[0].Tree(), got[1].Tree())
}

func TestMissingInstanceParentFails(t *testing.T) {
	// WriteGrids never emits an orphan instance descriptor itself (every
	// instance it writes names a parent it just wrote), so the failure
	// mode from spec.md S5 is reproduced by hand-crafting the stream: a
	// single grid descriptor that claims an instance parent no grid in
	// the file actually has.
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory), archive.WithSeekable(false))

	var buf bytes.Buffer
	require.NoError(t, a.WriteHeader(&buf))

	archiveMeta := gridio.NewSimpleMetadataMap()
	_, err := archiveMeta.WriteTo(&buf)
	require.NoError(t, err)

	writeU32(t, &buf, 1) // grid count

	desc := griddesc.Descriptor{Name: "instance", TypeTag: floatGridType, InstanceParent: "ghost"}
	require.NoError(t, desc.WriteHeader(&buf))
	require.NoError(t, desc.WriteOffsets(&buf))
	writeU32(t, &buf, uint32(compression.None))

	grid := gridiotest.NewGrid("instance", floatGridType, gridio.ClassUnknown, gridio.ValueFloat, &gridiotest.Tree{}, &gridiotest.Transform{ID: "uniform:1"})
	_, err = grid.Metadata().WriteTo(&buf)
	require.NoError(t, err)
	_, err = grid.Transform().WriteTo(&buf)
	require.NoError(t, err)

	_, err = a.ReadGrids(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, archive.ErrMissingInstanceParent)
}

func writeU32(t *testing.T, w *bytes.Buffer, v uint32) {
	t.Helper()
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	require.NoError(t, err)
}

func TestBloscCodecRecordedPerGridSurvivesReaderDefaultMismatch(t *testing.T) {
	// A grid written with BLOSC+zstd must still decode correctly through a
	// reader whose own configured default is lz4: the codec actually used is
	// recovered from the grid's own recorded file_compression metadata
	// (spec.md §4.5 step 9), not assumed to match the reader's Archive.
	factory := newFactory()
	writer := archive.New(
		archive.WithFactory(factory),
		archive.WithCompression(compression.Blosc),
		archive.WithBloscCodec(compression.BloscZstd),
		archive.WithGridStats(true),
	)
	grid := sampleGrid("density")

	var buf bytes.Buffer
	require.NoError(t, writer.WriteGrids(newSeekBuffer(&buf), []gridio.Grid{grid}))

	reader := archive.New(
		archive.WithFactory(factory),
		archive.WithCompression(compression.Blosc),
		archive.WithBloscCodec(compression.BloscLZ4),
	)
	got, err := reader.ReadGrids(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 1)

	gotTree := got[0].Tree().(*gridiotest.Tree)
	require.Equal(t, []byte("leaf-zero-data"), gotTree.Leaves[0].Data())
	require.Equal(t, []byte("leaf-one-data!!"), gotTree.Leaves[1].Data())
}

func TestCompressionClearsZipForLevelSetAndFogVolume(t *testing.T) {
	flags := compression.Zip | compression.ActiveMask
	require.False(t, flags.WithoutZipForClass(true).Has(compression.Zip))
	require.True(t, flags.WithoutZipForClass(false).Has(compression.Zip))
}

func TestLegacyVersionReadsTopologyBeforeTransform(t *testing.T) {
	// A file version below versionGridInstancing orders a grid's body as
	// topology, transform, buffers instead of transform, topology, buffers
	// (spec.md §4.6 read step 11, §8 S3). Hand-craft such a stream directly
	// since this library's own writer only ever emits the current version.
	factory := newFactory()
	a := archive.New(archive.WithFactory(factory))

	var buf bytes.Buffer
	buf.WriteString("OPENVDB\x00")
	writeU32(t, &buf, 215) // < versionGridInstancing (216), >= versionLibraryAndUUID (211)
	writeU32(t, &buf, 6)   // library major
	writeU32(t, &buf, 2)   // library minor
	buf.WriteByte(1)       // has-grid-offsets (>= versionGridOffsets)
	buf.WriteString("00000000-0000-0000-0000-000000000000")

	archiveMeta := gridio.NewSimpleMetadataMap()
	_, err := archiveMeta.WriteTo(&buf)
	require.NoError(t, err)
	writeU32(t, &buf, 1) // grid count

	desc := griddesc.Descriptor{Name: "legacy", TypeTag: floatGridType}
	require.NoError(t, desc.WriteHeader(&buf))
	require.NoError(t, desc.WriteOffsets(&buf))

	tree := &gridiotest.Tree{Leaves: []*gridiotest.Leaf{
		gridiotest.NewLeaf([3]int32{0, 0, 0}, []byte("legacy-leaf-data")),
	}}
	transform := &gridiotest.Transform{ID: "uniform:0.5"}
	grid := gridiotest.NewGrid("legacy", floatGridType, gridio.ClassUnknown, gridio.ValueFloat, tree, transform)

	_, err = grid.Metadata().WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, tree.WriteTopology(&buf))
	_, err = transform.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, tree.WriteBuffers(&buf, uint32(compression.Zip|compression.ActiveMask), compression.BloscLZ4))

	got, err := a.ReadGrids(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 1)

	gotTree := got[0].Tree().(*gridiotest.Tree)
	require.Len(t, gotTree.Leaves, 1)
	require.Equal(t, []byte("legacy-leaf-data"), gotTree.Leaves[0].Data())
	require.Equal(t, "uniform:0.5", got[0].Transform().(*gridiotest.Transform).ID)
}

func TestReadGridsFromFileUsesMemoryMap(t *testing.T) {
	factory := newFactory()
	writer := archive.New(archive.WithFactory(factory))
	grid := sampleGrid("density")

	var buf bytes.Buffer
	require.NoError(t, writer.WriteGrids(newSeekBuffer(&buf), []gridio.Grid{grid}))

	path := filepath.Join(t.TempDir(), "grids.vdb")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	reader := archive.New(archive.WithFactory(factory))
	grids, mf, err := reader.ReadGridsFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, mf, "delayed loading is on by default, so the file should be memory-mapped")
	defer mf.Release()

	require.Len(t, grids, 1)
	gotTree := grids[0].Tree().(*gridiotest.Tree)
	require.Equal(t, []byte("leaf-zero-data"), gotTree.Leaves[0].Data())
}

func TestReadGridsFromFileFallsBackWithoutDelayedLoad(t *testing.T) {
	factory := newFactory()
	writer := archive.New(archive.WithFactory(factory))
	grid := sampleGrid("density")

	var buf bytes.Buffer
	require.NoError(t, writer.WriteGrids(newSeekBuffer(&buf), []gridio.Grid{grid}))

	path := filepath.Join(t.TempDir(), "grids.vdb")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	reader := archive.New(archive.WithFactory(factory), archive.WithDelayedLoading(false))
	grids, mf, err := reader.ReadGridsFromFile(path)
	require.NoError(t, err)
	require.Nil(t, mf, "delayed loading disabled, so no memory map should be held")
	require.Len(t, grids, 1)
}

func TestDelayedLoadDisabledViaEnv(t *testing.T) {
	t.Setenv("OPENVDB_DISABLE_DELAYED_LOAD", "1")
	a := archive.New()
	require.False(t, a.IsDelayedLoadingEnabled())
}

func TestDelayedLoadOverrideWinsOverEnv(t *testing.T) {
	t.Setenv("OPENVDB_DISABLE_DELAYED_LOAD", "1")
	a := archive.New(archive.WithDelayedLoading(true))
	require.True(t, a.IsDelayedLoadingEnabled())
}
