// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/Mu-L/vdbarchive/compression"
)

// magic is the 8-byte constant at the start of every archive (spec.md §6).
var magic = [8]byte{'O', 'P', 'E', 'N', 'V', 'D', 'B', 0}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteHeader writes the archive preamble: magic, current file version,
// library major/minor, has-grid-offsets, and a freshly generated UUID
// (spec.md §4.4 write steps 1-5). It mutates a.UUID to the newly generated
// value, matching "writeHeader ... regenerating UUID" (spec.md §3
// lifecycle).
func (a *Archive) WriteHeader(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "archive: writing magic")
	}
	if err := writeUint32(w, CurrentFileVersion); err != nil {
		return errors.Wrap(err, "archive: writing file version")
	}
	if err := writeUint32(w, CurrentLibraryMajor); err != nil {
		return errors.Wrap(err, "archive: writing library major")
	}
	if err := writeUint32(w, CurrentLibraryMinor); err != nil {
		return errors.Wrap(err, "archive: writing library minor")
	}
	var hasOffsets byte
	if a.Seekable {
		hasOffsets = 1
	}
	if _, err := w.Write([]byte{hasOffsets}); err != nil {
		return errors.Wrap(err, "archive: writing has-grid-offsets")
	}

	a.UUID = generateUUID()
	if _, err := io.WriteString(w, a.UUID); err != nil {
		return errors.Wrap(err, "archive: writing uuid")
	}

	a.FileVersion = CurrentFileVersion
	a.LibMajor = CurrentLibraryMajor
	a.LibMinor = CurrentLibraryMinor
	a.HasGridOffsets = a.Seekable
	return nil
}

// ReadHeader parses the archive preamble, absorbing the file's own
// version/UUID/compression into a (spec.md §4.4 read steps 1-6, §3
// lifecycle). It returns true iff the UUID differs from a's prior value,
// per spec.md §4.4 "Return true iff the UUID differs ...".
func (a *Archive) ReadHeader(r io.Reader) (uuidChanged bool, err error) {
	var gotMagic [8]byte
	if _, err = io.ReadFull(r, gotMagic[:]); err != nil {
		return false, errors.Wrap(err, "archive: reading magic")
	}
	if gotMagic != magic {
		return false, ErrNotAVdbFile
	}

	fileVersion, err := readUint32(r)
	if err != nil {
		return false, errors.Wrap(err, "archive: reading file version")
	}

	if fileVersion > CurrentFileVersion {
		a.warnf(UnsupportedFutureVersionWarning, fileVersion, CurrentFileVersion)
	}

	var libMajor, libMinor uint32
	if fileVersion < versionLibraryAndUUID {
		v2, err := readUint32(r)
		if err != nil {
			return false, errors.Wrap(err, "archive: reading legacy version word 2")
		}
		v3, err := readUint32(r)
		if err != nil {
			return false, errors.Wrap(err, "archive: reading legacy version word 3")
		}
		// Fold the legacy 3-word version into a single decimal-encoded
		// number (spec.md §4.4 read step 2).
		fileVersion = 100*fileVersion + 10*v2 + v3
	} else {
		if libMajor, err = readUint32(r); err != nil {
			return false, errors.Wrap(err, "archive: reading library major")
		}
		if libMinor, err = readUint32(r); err != nil {
			return false, errors.Wrap(err, "archive: reading library minor")
		}
	}

	hasGridOffsets := true
	if fileVersion >= versionGridOffsets {
		var b [1]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return false, errors.Wrap(err, "archive: reading has-grid-offsets")
		}
		hasGridOffsets = b[0] != 0
	}
	// spec.md §3 invariant: pre-212 files always have grid offsets.
	if fileVersion < versionGridOffsets {
		hasGridOffsets = true
	}

	comp := compression.Default(true)
	if fileVersion < versionBloscCompression {
		comp = compression.Zip | compression.ActiveMask
	}
	if fileVersion >= versionSelectiveCompression && fileVersion < versionNodeMaskCompression {
		var b [1]byte
		if _, err = io.ReadFull(r, b[:]); err != nil {
			return false, errors.Wrap(err, "archive: reading isCompressed byte")
		}
		if b[0] != 0 {
			comp = compression.Zip
		} else {
			comp = compression.None
		}
	}

	var uuidStr string
	if fileVersion >= versionLibraryAndUUID {
		buf := make([]byte, 36)
		if _, err = io.ReadFull(r, buf); err != nil {
			return false, errors.Wrap(err, "archive: reading uuid")
		}
		uuidStr = string(buf)
	} else {
		buf := make([]byte, 16)
		if _, err = io.ReadFull(r, buf); err != nil {
			return false, errors.Wrap(err, "archive: reading legacy uuid bytes")
		}
		uuidStr = formatCompact(buf)
	}

	prior := a.UUID
	a.FileVersion = fileVersion
	a.LibMajor = libMajor
	a.LibMinor = libMinor
	a.HasGridOffsets = hasGridOffsets
	a.Compression = comp
	a.UUID = uuidStr

	changed := prior == "" || uuidStr == "" || prior != uuidStr
	return changed, nil
}
