// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package streammeta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mu-L/vdbarchive/metacarrier"
)

func TestBindAndRestore(t *testing.T) {
	carrier := metacarrier.NewReadWriteCarrier(&bytes.Buffer{})

	fileMeta := New()
	fileMeta.FileVersion = 224
	fileMeta.Bind(carrier, true)
	require.Same(t, fileMeta, Restore(carrier))

	gridMeta := fileMeta.Clone()
	gridMeta.HalfFloat = true

	restore := ScopeGuard(carrier)
	gridMeta.Bind(carrier, true)
	require.Same(t, gridMeta, Restore(carrier))
	restore()

	require.Same(t, fileMeta, Restore(carrier))
}

func TestCloneIsIndependent(t *testing.T) {
	m := New()
	require.NoError(t, m.SetAux("k", "v"))

	c := m.Clone()
	require.NoError(t, c.SetAux("k2", "v2"))

	_, ok := m.GetAux("k2")
	require.False(t, ok, "mutating the clone's aux map must not affect the original")

	v, ok := m.GetAux("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestSetAuxRejectsUnencodable(t *testing.T) {
	m := New()
	err := m.SetAux("bad", make(chan int))
	require.Error(t, err)
}

func TestGetAuxMissingKey(t *testing.T) {
	m := New()
	_, ok := m.GetAux("missing")
	require.False(t, ok)
}
