// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package griddesc implements the per-grid on-disk descriptor record: name,
// type tag, half-float flag, optional instance-parent name, and the three
// file offsets used for seekable random access.
package griddesc

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Descriptor carries everything the archive writes before a grid's payload.
type Descriptor struct {
	Name              string
	TypeTag           string
	HalfFloat         bool
	InstanceParent    string // empty unless this grid is an instance
	GridStartOffset   int64
	BlockStartOffset  int64
	EndOffset         int64
}

// IsInstance reports whether this descriptor names an instance parent.
func (d *Descriptor) IsInstance() bool { return d.InstanceParent != "" }

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errors.Wrap(err, "writing string length")
	}
	if _, err := io.WriteString(w, s); err != nil {
		return errors.Wrap(err, "writing string bytes")
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", errors.Wrap(err, "reading string length")
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "reading string bytes")
	}
	return string(buf), nil
}

// WriteHeader writes the descriptor's name, type tag, half-float flag, and
// (if this is an instance) its parent's name. Offsets are written
// separately by the caller, since they're placeholders at this point
// (spec.md §4.5 steps 4-5).
func (d *Descriptor) WriteHeader(w io.Writer) error {
	if err := writeString(w, d.Name); err != nil {
		return errors.WithMessage(err, "grid descriptor name")
	}
	if err := writeString(w, d.TypeTag); err != nil {
		return errors.WithMessage(err, "grid descriptor type")
	}
	var half byte
	if d.HalfFloat {
		half = 1
	}
	if _, err := w.Write([]byte{half}); err != nil {
		return errors.Wrap(err, "writing half-float flag")
	}
	var instanceFlag byte
	if d.IsInstance() {
		instanceFlag = 1
	}
	if _, err := w.Write([]byte{instanceFlag}); err != nil {
		return errors.Wrap(err, "writing instance flag")
	}
	if d.IsInstance() {
		if err := writeString(w, d.InstanceParent); err != nil {
			return errors.WithMessage(err, "grid descriptor instance parent")
		}
	}
	return nil
}

// ReadHeader is the inverse of WriteHeader.
func (d *Descriptor) ReadHeader(r io.Reader) error {
	var err error
	if d.Name, err = readString(r); err != nil {
		return errors.WithMessage(err, "grid descriptor name")
	}
	if d.TypeTag, err = readString(r); err != nil {
		return errors.WithMessage(err, "grid descriptor type")
	}
	var flags [2]byte
	if _, err := io.ReadFull(r, flags[:]); err != nil {
		return errors.Wrap(err, "reading descriptor flags")
	}
	d.HalfFloat = flags[0] != 0
	if flags[1] != 0 {
		if d.InstanceParent, err = readString(r); err != nil {
			return errors.WithMessage(err, "grid descriptor instance parent")
		}
	} else {
		d.InstanceParent = ""
	}
	return nil
}

// WriteOffsets writes the three placeholder (or final) int64 offsets.
func (d *Descriptor) WriteOffsets(w io.Writer) error {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(d.GridStartOffset))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(d.BlockStartOffset))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(d.EndOffset))
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "writing grid offsets")
}

// ReadOffsets reads the three int64 offsets written by WriteOffsets.
func (d *Descriptor) ReadOffsets(r io.Reader) error {
	var buf [24]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return errors.Wrap(err, "reading grid offsets")
	}
	d.GridStartOffset = int64(binary.LittleEndian.Uint64(buf[0:8]))
	d.BlockStartOffset = int64(binary.LittleEndian.Uint64(buf[8:16]))
	d.EndOffset = int64(binary.LittleEndian.Uint64(buf[16:24]))
	return nil
}

// OffsetsSize is the fixed on-disk size of the three offsets written by
// WriteOffsets.
const OffsetsSize = 24
