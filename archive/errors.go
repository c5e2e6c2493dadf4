// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy in spec.md §7. Each is returned (usually
// wrapped with context via github.com/pkg/errors) from the call site that
// detects the condition, so callers can match with errors.Is.
var (
	// ErrNotAVdbFile is returned when the 8-byte magic doesn't match.
	ErrNotAVdbFile = errors.New("archive: not a vdb file")

	// ErrUnregisteredGridType is returned when a descriptor names a type
	// tag the grid-type factory doesn't recognize.
	ErrUnregisteredGridType = errors.New("archive: unregistered grid type")

	// ErrMissingInstanceParent is returned when an instance descriptor's
	// parent name has no corresponding primary grid in the file.
	ErrMissingInstanceParent = errors.New("archive: missing instance parent")

	// ErrTypeAlreadyRegistered is returned by a grid-type factory's
	// registration call for a type tag already registered.
	ErrTypeAlreadyRegistered = errors.New("archive: type already registered")

	// ErrMapFailed names an mmap failure when opening a file for delayed
	// loading. It is not returned: its text prefixes the warning logged
	// when ReadGridsFromFile falls back to a regular read.
	ErrMapFailed = errors.New("archive: memory-map failed")
)

// UnsupportedFutureVersionWarning is not an error; callers get it through
// the Logger, not a return value (spec.md §7: "log a warning and attempt
// best-effort read"). It's exported as a format string for consistent
// wording between the archive and its tests.
const UnsupportedFutureVersionWarning = "archive: file version %d exceeds this library's max %d; attempting best-effort read"
