// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !unix

package mappedfile

import "os"

// supportsUnlinkAfterOpen is false on platforms (Windows) where an open
// file generally can't be unlinked out from under itself.
const supportsUnlinkAfterOpen = false

// mapFile reads the whole file into memory when true memory-mapping isn't
// wired for this platform; Open still succeeds and Buffer serves reads from
// that in-memory copy.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
