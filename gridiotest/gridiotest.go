// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package gridiotest provides minimal gridio.Grid/Tree/Leaf/Transform/
// Factory implementations so archive tests can exercise a full write/read
// round trip without a real voxel-grid library.
package gridiotest

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/archive"
	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/gridio"
)

// Leaf is a fixed-size dense leaf with an explicit origin, active mask, and
// raw voxel byte buffer.
type Leaf struct {
	origin     [3]int32
	mask       []byte
	background any
	data       []byte
}

// NewLeaf returns a leaf with every voxel active and data as its buffer.
func NewLeaf(origin [3]int32, data []byte) *Leaf {
	return &Leaf{origin: origin, mask: []byte{0xff}, background: int32(0), data: data}
}

func (l *Leaf) Origin() [3]int32  { return l.origin }
func (l *Leaf) ValueMask() []byte { return l.mask }
func (l *Leaf) ChildMask() []byte { return nil }
func (l *Leaf) Background() any   { return l.background }

// Data returns the leaf's decoded voxel buffer, for test assertions.
func (l *Leaf) Data() []byte { return l.data }

func (l *Leaf) WriteBuffers(w io.Writer, comp uint32, bloscCodec compression.BloscCodec) error {
	cw, err := compression.Writer(w, compression.Flags(comp), bloscCodec)
	if err != nil {
		return err
	}
	if _, err := cw.Write(l.data); err != nil {
		return err
	}
	return cw.Close()
}

func (l *Leaf) ReadBuffers(r io.Reader, comp uint32, bloscCodec compression.BloscCodec) error {
	cr, err := compression.Reader(r, compression.Flags(comp), bloscCodec)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(cr)
	if err != nil {
		return err
	}
	l.data = data
	return cr.Close()
}

// Tree is a flat slice of leaves. WriteBuffers/ReadBuffers frame each
// leaf's compressed block with a 4-byte length prefix, since the
// compression codecs used here don't otherwise self-delimit within a
// shared stream.
type Tree struct {
	Leaves []*Leaf
}

func (t *Tree) LeafCount() int         { return len(t.Leaves) }
func (t *Tree) Leaf(i int) gridio.Leaf { return t.Leaves[i] }

func (t *Tree) WriteTopology(w io.Writer) error {
	if err := writeU32(w, uint32(len(t.Leaves))); err != nil {
		return err
	}
	for _, l := range t.Leaves {
		var buf [12]byte
		binary.LittleEndian.PutUint32(buf[0:4], uint32(l.origin[0]))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(l.origin[1]))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(l.origin[2]))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(l.mask))); err != nil {
			return err
		}
		if _, err := w.Write(l.mask); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) ReadTopology(r io.Reader) error {
	n, err := readU32(r)
	if err != nil {
		return err
	}
	t.Leaves = make([]*Leaf, n)
	for i := range t.Leaves {
		var buf [12]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		origin := [3]int32{
			int32(binary.LittleEndian.Uint32(buf[0:4])),
			int32(binary.LittleEndian.Uint32(buf[4:8])),
			int32(binary.LittleEndian.Uint32(buf[8:12])),
		}
		maskLen, err := readU32(r)
		if err != nil {
			return err
		}
		mask := make([]byte, maskLen)
		if _, err := io.ReadFull(r, mask); err != nil {
			return err
		}
		t.Leaves[i] = &Leaf{origin: origin, mask: mask, background: int32(0)}
	}
	return nil
}

func (t *Tree) WriteBuffers(w io.Writer, comp uint32, bloscCodec compression.BloscCodec) error {
	for _, l := range t.Leaves {
		var buf []byte
		bw := &sliceWriter{}
		if err := l.WriteBuffers(bw, comp, bloscCodec); err != nil {
			return err
		}
		buf = bw.data
		if err := writeU32(w, uint32(len(buf))); err != nil {
			return err
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) ReadBuffers(r io.Reader, comp uint32, bloscCodec compression.BloscCodec, clip any) error {
	for _, l := range t.Leaves {
		n, err := readU32(r)
		if err != nil {
			return err
		}
		lr := io.LimitReader(r, int64(n))
		if err := l.ReadBuffers(lr, comp, bloscCodec); err != nil {
			return err
		}
	}
	return nil
}

type sliceWriter struct{ data []byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Transform is an opaque transform stand-in carrying one identifying
// string (e.g. a voxel size encoded as text).
type Transform struct {
	ID string
}

func (t *Transform) WriteTo(w io.Writer) (int64, error) {
	if err := writeU32(w, uint32(len(t.ID))); err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, t.ID)
	return int64(4 + n), err
}

func (t *Transform) ReadFrom(r io.Reader) (int64, error) {
	l, err := readU32(r)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, l)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(4 + n), err
	}
	t.ID = string(buf)
	return int64(4 + n), nil
}

// Grid wires together a name/class/value-type, a Tree, a Transform, and a
// gridio.SimpleMetadataMap into a concrete gridio.Grid.
type Grid struct {
	NameV      string
	TypeTagV   string
	ClassV     gridio.Class
	ValueTypeV gridio.ValueType
	TreeV      gridio.Tree
	TransformV gridio.Transform
	MetadataV  gridio.MetadataMap
}

// NewGrid returns a grid with a fresh SimpleMetadataMap.
func NewGrid(name, typeTag string, class gridio.Class, valueType gridio.ValueType, tree gridio.Tree, transform gridio.Transform) *Grid {
	md := gridio.NewSimpleMetadataMap()
	md.SetString("name", name)
	md.SetString("class", class.String())
	return &Grid{NameV: name, TypeTagV: typeTag, ClassV: class, ValueTypeV: valueType, TreeV: tree, TransformV: transform, MetadataV: md}
}

// Name returns the grid's "name" metadata entry, falling back to NameV when
// the metadata map has none.
func (g *Grid) Name() string {
	if g.MetadataV != nil {
		if s, ok := g.MetadataV.GetString("name"); ok {
			return s
		}
	}
	return g.NameV
}

func (g *Grid) TypeTag() string               { return g.TypeTagV }
func (g *Grid) Class() gridio.Class           { return g.ClassV }
func (g *Grid) SetClass(c gridio.Class)       { g.ClassV = c }
func (g *Grid) ValueType() gridio.ValueType   { return g.ValueTypeV }
func (g *Grid) Tree() gridio.Tree             { return g.TreeV }
func (g *Grid) SetTree(t gridio.Tree)         { g.TreeV = t }
func (g *Grid) Transform() gridio.Transform   { return g.TransformV }
func (g *Grid) Metadata() gridio.MetadataMap  { return g.MetadataV }

func (g *Grid) ShallowClone() gridio.Grid {
	c := *g
	c.MetadataV = g.MetadataV.Clone()
	return &c
}

func (g *Grid) DeepCopyTree(src gridio.Tree) {
	srcTree, ok := src.(*Tree)
	if !ok {
		return
	}
	cp := &Tree{Leaves: make([]*Leaf, len(srcTree.Leaves))}
	for i, l := range srcTree.Leaves {
		dup := *l
		dup.mask = append([]byte(nil), l.mask...)
		dup.data = append([]byte(nil), l.data...)
		cp.Leaves[i] = &dup
	}
	g.TreeV = cp
}

// Factory resolves type tags registered via Register to fresh, empty grids.
type Factory struct {
	ctors map[string]func() gridio.Grid
}

// NewFactory returns a Factory with no registered types.
func NewFactory() *Factory { return &Factory{ctors: map[string]func() gridio.Grid{}} }

// Register installs a constructor for typeTag.
func (f *Factory) Register(typeTag string, ctor func() gridio.Grid) error {
	if _, exists := f.ctors[typeTag]; exists {
		return errors.Wrapf(archive.ErrTypeAlreadyRegistered, "gridiotest: type %q", typeTag)
	}
	f.ctors[typeTag] = ctor
	return nil
}

func (f *Factory) New(typeTag string) (gridio.Grid, bool) {
	ctor, ok := f.ctors[typeTag]
	if !ok {
		return nil, false
	}
	return ctor(), true
}
