// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mu-L/vdbarchive/compression"
)

func TestLoadParsesJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vdbarchive.jsonc")
	contents := `{
		// write a seek table so random access works
		"seekable": true,
		"compression": "zip",
		"activeMask": false,
		"bloscCodec": "zstd",
		"instancing": false,
	}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	require.True(t, d.Seekable)
	require.False(t, d.Instancing)
	require.Equal(t, "zip", d.Compression)

	flags, codec := d.Flags()
	require.True(t, flags.Has(compression.Zip))
	require.False(t, flags.Has(compression.ActiveMask))
	require.Equal(t, compression.BloscZstd, codec)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	require.True(t, d.Seekable)
	require.True(t, d.WriteGridStats)
	require.Equal(t, "blosc", d.Compression)

	opts := d.Options()
	require.Len(t, opts, 6)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.Error(t, err)
}
