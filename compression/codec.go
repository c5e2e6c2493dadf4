// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compression

import "io"

// Writer wraps w according to the active flags, preferring BLOSC over ZIP
// when both bits are set (BLOSC supersedes ZIP for the same payload; a
// writer never layers both). ACTIVE_MASK has no byte-stream counterpart
// here — it is applied by the caller before compression, as a mask over
// which voxels are even written.
func Writer(w io.Writer, flags Flags, bloscCodec BloscCodec) (io.WriteCloser, error) {
	switch {
	case flags.Has(Blosc):
		return bloscWriter(w, bloscCodec)
	case flags.Has(Zip):
		return ZipWriter(w), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// Reader wraps r according to the active flags.
func Reader(r io.Reader, flags Flags, bloscCodec BloscCodec) (io.ReadCloser, error) {
	switch {
	case flags.Has(Blosc):
		return bloscReader(r, bloscCodec)
	case flags.Has(Zip):
		return ZipReader(r), nil
	default:
		return io.NopCloser(r), nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
