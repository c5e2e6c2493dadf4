// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compression

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// BloscCodec selects which internal byte-stream codec backs the BLOSC bit.
// The real Blosc library multiplexes several internal codecs (shuffle +
// one of several entropy/LZ backends); lacking a pure-Go Blosc binding in
// the corpus, this module offers the two fast block codecs the corpus does
// carry and documents the substitution in DESIGN.md.
type BloscCodec int

const (
	// BloscLZ4 favors speed, mirroring Blosc's own default internal codec.
	BloscLZ4 BloscCodec = iota
	// BloscZstd favors ratio, for archives where write throughput matters
	// less than on-disk size.
	BloscZstd
)

// bloscWriter wraps w in a BLOSC-compressing WriteCloser per codec.
func bloscWriter(w io.Writer, codec BloscCodec) (io.WriteCloser, error) {
	switch codec {
	case BloscLZ4:
		lw := lz4.NewWriter(w)
		return lw, nil
	case BloscZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "blosc: opening zstd writer")
		}
		return zw, nil
	default:
		return nil, errors.Errorf("blosc: unknown codec %d", codec)
	}
}

// zstdReadCloser adapts *zstd.Decoder (whose Close takes no error) to
// io.ReadCloser.
type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// lz4ReadCloser adapts *lz4.Reader (which has no Close at all) to
// io.ReadCloser.
type lz4ReadCloser struct{ *lz4.Reader }

func (lz4ReadCloser) Close() error { return nil }

// bloscReader wraps r in a BLOSC-decompressing ReadCloser per codec.
func bloscReader(r io.Reader, codec BloscCodec) (io.ReadCloser, error) {
	switch codec {
	case BloscLZ4:
		return lz4ReadCloser{lz4.NewReader(r)}, nil
	case BloscZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "blosc: opening zstd reader")
		}
		return zstdReadCloser{zr}, nil
	default:
		return nil, errors.Errorf("blosc: unknown codec %d", codec)
	}
}

// BloscWriter is the exported entry point used by the archive's per-leaf
// compression path.
func BloscWriter(w io.Writer, codec BloscCodec) (io.WriteCloser, error) {
	return bloscWriter(w, codec)
}

// BloscReader is the exported entry point used by the archive's per-leaf
// decompression path.
func BloscReader(r io.Reader, codec BloscCodec) (io.ReadCloser, error) {
	return bloscReader(r, codec)
}
