// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build unix

package mappedfile

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/pkg/errors"
)

// supportsUnlinkAfterOpen is true on POSIX: a file can be removed from its
// directory entry while still open (and mapped), per spec.md §4.3.
const supportsUnlinkAfterOpen = true

func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // safe: mmap keeps the pages resident after fd close

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mmap")
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
