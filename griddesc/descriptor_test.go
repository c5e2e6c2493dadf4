// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package griddesc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTripPrimary(t *testing.T) {
	d := Descriptor{Name: "density", TypeTag: "FloatGrid", HalfFloat: true}
	var buf bytes.Buffer
	require.NoError(t, d.WriteHeader(&buf))

	var got Descriptor
	require.NoError(t, got.ReadHeader(&buf))
	require.Equal(t, d.Name, got.Name)
	require.Equal(t, d.TypeTag, got.TypeTag)
	require.Equal(t, d.HalfFloat, got.HalfFloat)
	require.False(t, got.IsInstance())
}

func TestHeaderRoundTripInstance(t *testing.T) {
	d := Descriptor{Name: "density2", TypeTag: "FloatGrid", InstanceParent: "density"}
	var buf bytes.Buffer
	require.NoError(t, d.WriteHeader(&buf))

	var got Descriptor
	require.NoError(t, got.ReadHeader(&buf))
	require.True(t, got.IsInstance())
	require.Equal(t, "density", got.InstanceParent)
}

func TestOffsetsRoundTrip(t *testing.T) {
	d := Descriptor{GridStartOffset: 128, BlockStartOffset: 256, EndOffset: 4096}
	var buf bytes.Buffer
	require.NoError(t, d.WriteOffsets(&buf))
	require.Equal(t, OffsetsSize, buf.Len())

	var got Descriptor
	require.NoError(t, got.ReadOffsets(&buf))
	require.Equal(t, d.GridStartOffset, got.GridStartOffset)
	require.Equal(t, d.BlockStartOffset, got.BlockStartOffset)
	require.Equal(t, d.EndOffset, got.EndOffset)
}
