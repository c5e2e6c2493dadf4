// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package mappedfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapped.bin")
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	return path
}

func TestOpenAndBuffer(t *testing.T) {
	contents := []byte("hello mapped world")
	path := writeTemp(t, contents)

	mf, err := Open(path, false)
	require.NoError(t, err)
	require.Equal(t, len(contents), mf.Len())

	buf, err := mf.Buffer(6, 6)
	require.NoError(t, err)
	got, err := io.ReadAll(buf)
	require.NoError(t, err)
	require.Equal(t, "mapped", string(got))

	require.NoError(t, mf.Release())
}

func TestAutoDeleteRemovesFile(t *testing.T) {
	contents := []byte("temp data")
	path := writeTemp(t, contents)

	mf, err := Open(path, true)
	require.NoError(t, err)

	if supportsUnlinkAfterOpen {
		_, statErr := os.Stat(path)
		require.True(t, os.IsNotExist(statErr), "file should be unlinked immediately after open on POSIX")
	}

	buf, err := mf.Buffer(0, int64(len(contents)))
	require.NoError(t, err)
	got, err := io.ReadAll(buf)
	require.NoError(t, err)
	require.Equal(t, contents, got)

	require.NoError(t, mf.Release())
}

func TestNotifierRunsOnFinalRelease(t *testing.T) {
	path := writeTemp(t, []byte("x"))
	mf, err := Open(path, false)
	require.NoError(t, err)

	mf.Acquire() // simulate a lazy leaf holding a second reference

	var notified string
	mf.SetNotifier(func(filename string) { notified = filename })

	require.NoError(t, mf.Release())
	require.Empty(t, notified, "notifier must not fire until the last reference is released")

	require.NoError(t, mf.Release())
	require.Equal(t, path, notified)
}
