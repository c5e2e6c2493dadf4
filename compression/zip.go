// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compression

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// ZipLevel is the deflate level used for the ZIP bit. OpenVDB's own writer
// uses zlib's default; klauspost/compress/flate's default level tracks it.
const ZipLevel = flate.DefaultCompression

// ZipWriter wraps w in a ZIP-compressing WriteCloser. Closing it flushes
// and finalizes the compressed stream; it does not close w.
func ZipWriter(w io.Writer) io.WriteCloser {
	fw, _ := flate.NewWriter(w, ZipLevel)
	return fw
}

// ZipReader wraps r in a ZIP-decompressing ReadCloser.
func ZipReader(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}
