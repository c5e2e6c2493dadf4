// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package delayedload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mu-L/vdbarchive/compression"
	"github.com/Mu-L/vdbarchive/delayedload"
	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/gridiotest"
)

func TestPopulateUnsupportedValueType(t *testing.T) {
	tree := &gridiotest.Tree{Leaves: []*gridiotest.Leaf{gridiotest.NewLeaf([3]int32{}, []byte("x"))}}
	_, ok := delayedload.Populate(tree, gridio.ValueUnknown, compression.None, compression.BloscLZ4)
	require.False(t, ok)
}

func TestPopulateEmptyTree(t *testing.T) {
	tree := &gridiotest.Tree{}
	md, ok := delayedload.Populate(tree, gridio.ValueFloat, compression.None, compression.BloscLZ4)
	require.True(t, ok, "an empty tree is still a supported value type; population yields empty tables")
	require.Empty(t, md.MaskBytes)
}

func TestPopulateSizesPerLeaf(t *testing.T) {
	tree := &gridiotest.Tree{Leaves: []*gridiotest.Leaf{
		gridiotest.NewLeaf([3]int32{0, 0, 0}, []byte("abcdefgh")),
		gridiotest.NewLeaf([3]int32{8, 0, 0}, []byte("ijklmnop")),
	}}

	md, ok := delayedload.Populate(tree, gridio.ValueFloat, compression.Zip, compression.BloscLZ4)
	require.True(t, ok)
	require.Len(t, md.MaskBytes, 2)
	require.Len(t, md.CompressedSize, 2)
	for _, sz := range md.CompressedSize {
		require.Greater(t, sz, uint64(0))
	}
}

func TestPopulateSkipsSizeWithoutZipOrBlosc(t *testing.T) {
	tree := &gridiotest.Tree{Leaves: []*gridiotest.Leaf{
		gridiotest.NewLeaf([3]int32{0, 0, 0}, []byte("abcdefgh")),
	}}
	md, ok := delayedload.Populate(tree, gridio.ValueFloat, compression.ActiveMask, compression.BloscLZ4)
	require.True(t, ok)
	require.Nil(t, md.CompressedSize)
}
