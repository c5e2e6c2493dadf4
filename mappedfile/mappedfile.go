// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package mappedfile implements an owning handle over a memory-mapped
// read-only file with optional auto-delete semantics and a close-time
// notifier (spec.md §4.3). It mirrors joshuapare-hivekit's mmfile package:
// a platform-specific Map() helper plus a small owning wrapper.
package mappedfile

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Notifier is called with the mapped file's path when the MappedFile is
// closed, before any auto-delete attempt.
type Notifier func(filename string)

// MappedFile owns a memory-mapped read-only file. It is reference-counted
// by convention: the Archive holds one reference, and every lazily-loaded
// leaf that captures a Buffer() holds another, so the map outlives the
// Archive until the last leaf is done with it (spec.md §4.3 lifecycle,
// §9 "memory-mapped lifetime").
type MappedFile struct {
	mu         sync.Mutex
	filename   string
	data       []byte
	unmap      func() error
	autoDelete bool
	notifier   Notifier
	refs       int32
	closed     bool
}

// Open maps path read-only. If autoDelete is set and the platform is POSIX,
// the file is unlinked immediately after opening — the file's data persists
// via the open file descriptor / already-mapped pages until the mapping is
// released (spec.md §4.3 open()).
func Open(path string, autoDelete bool) (*MappedFile, error) {
	data, unmap, err := mapFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mappedfile: mapping %q", path)
	}
	mf := &MappedFile{
		filename:   path,
		data:       data,
		unmap:      unmap,
		autoDelete: autoDelete,
		refs:       1,
	}
	if autoDelete && supportsUnlinkAfterOpen {
		if err := os.Remove(path); err != nil {
			// Best-effort: the mapping is already live, so a failed unlink
			// just means the temp file outlives this process a bit longer.
			_ = err
		}
	}
	return mf, nil
}

// Acquire increments the reference count and returns mf, for a lazy leaf
// that is about to capture a Buffer() beyond the Archive's own lifetime.
func (mf *MappedFile) Acquire() *MappedFile {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.refs++
	return mf
}

// Release decrements the reference count. When it reaches zero, the
// mapping is torn down: the notifier (if any) runs first, then the file is
// best-effort removed if auto-delete is set.
func (mf *MappedFile) Release() error {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.refs--
	if mf.refs > 0 || mf.closed {
		return nil
	}
	mf.closed = true

	var unmapErr error
	if mf.unmap != nil {
		unmapErr = mf.unmap()
	}
	if mf.notifier != nil {
		mf.notifier(mf.filename)
	}
	if mf.autoDelete && !supportsUnlinkAfterOpen {
		if err := os.Remove(mf.filename); err != nil && !os.IsNotExist(err) {
			// A failed removal is ignored; nothing is logged or returned.
			_ = err
		}
	}
	return unmapErr
}

// SetNotifier installs cb to run once, at close time, with the filename.
func (mf *MappedFile) SetNotifier(cb Notifier) {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.notifier = cb
}

// ClearNotifier removes any installed notifier.
func (mf *MappedFile) ClearNotifier() {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.notifier = nil
}

// Filename returns the mapped path.
func (mf *MappedFile) Filename() string { return mf.filename }

// Len returns the size of the mapped region.
func (mf *MappedFile) Len() int { return len(mf.data) }

// Buffer returns an io.ReadSeeker over [offset, offset+length) of the
// mapped region. The returned buffer shares the mapping's underlying
// memory directly (no copy); it is safe for concurrent use by multiple
// readers over non-overlapping ranges (spec.md §4.3 concurrency).
func (mf *MappedFile) Buffer(offset, length int64) (io.ReadSeeker, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(mf.data)) {
		return nil, errors.Errorf("mappedfile: range [%d,%d) out of bounds (len=%d)",
			offset, offset+length, len(mf.data))
	}
	return bytes.NewReader(mf.data[offset : offset+length]), nil
}
