// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		flags Flags
		codec BloscCodec
	}{
		{"none", None, BloscLZ4},
		{"zip", Zip, BloscLZ4},
		{"blosc-lz4", Blosc, BloscLZ4},
		{"blosc-zstd", Blosc, BloscZstd},
		{"active-mask-only", ActiveMask, BloscLZ4},
	}

	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 64)

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := Writer(&buf, c.flags, c.codec)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Reader(&buf, c.flags, c.codec)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())

			require.Equal(t, payload, got)
		})
	}
}

func TestWithoutZipForClass(t *testing.T) {
	f := (Zip | ActiveMask).WithoutZipForClass(true)
	require.False(t, f.Has(Zip))
	require.True(t, f.Has(ActiveMask))

	f = (Zip | ActiveMask).WithoutZipForClass(false)
	require.True(t, f.Has(Zip))
}

func TestDefault(t *testing.T) {
	require.Equal(t, Blosc|ActiveMask, Default(true))
	require.Equal(t, Zip|ActiveMask, Default(false))
}
