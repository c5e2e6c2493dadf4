// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"os"

	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/gridio"
	"github.com/Mu-L/vdbarchive/mappedfile"
)

// ReadGridsFromFile opens path and reads every grid from it, the way a
// caller holding a filename rather than an already-open stream normally
// enters the archive (spec.md §4.3). When delayed loading is enabled, path
// is memory-mapped and read through the mapping instead of a regular file
// handle. Either way, every grid's buffers are decoded in full before this
// call returns.
//
// The returned MappedFile is non-nil only when a mapping was actually used;
// the caller must Release it once done with the grids (and Acquire it first
// for any leaf or buffer that needs to outlive this call), per spec.md §4.3
// reference-counted lifetime. If the map fails, a warning is logged and a
// regular file read is used instead — mmap failure is not fatal (spec.md
// §7 MapError).
func (a *Archive) ReadGridsFromFile(path string) ([]gridio.Grid, *mappedfile.MappedFile, error) {
	if !a.IsDelayedLoadingEnabled() {
		return a.readGridsFromPlainFile(path)
	}

	mf, err := mappedfile.Open(path, false)
	if err != nil {
		a.warnf("%s: %q: %v; falling back to a regular read", ErrMapFailed, path, err)
		return a.readGridsFromPlainFile(path)
	}

	buf, err := mf.Buffer(0, int64(mf.Len()))
	if err != nil {
		_ = mf.Release()
		return nil, nil, errors.WithMessagef(err, "archive: mapping buffer for %q", path)
	}

	grids, err := a.ReadGrids(buf)
	if err != nil {
		_ = mf.Release()
		return nil, nil, err
	}
	return grids, mf, nil
}

func (a *Archive) readGridsFromPlainFile(path string) ([]gridio.Grid, *mappedfile.MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "archive: opening %q", path)
	}
	defer f.Close()

	grids, err := a.ReadGrids(f)
	return grids, nil, err
}
