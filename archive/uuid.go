// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// generateUUID produces a 36-character hyphenated uppercase UUID string
// (spec.md §4.4 write step 5, §9 "UUID generation"). If the entropy source
// fails, it returns the all-zero UUID from zeroPrefixedUUID instead, which
// never equals a randomly generated (version 4) UUID. Two fallback UUIDs
// are identical strings, so they do compare equal to each other.
func generateUUID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return zeroPrefixedUUID()
	}
	return strings.ToUpper(id.String())
}

// zeroPrefixedUUID returns a syntactically well-formed but entropy-free
// UUID string with all 16 bytes zero, so it can never equal a genuinely
// random UUID (EntropyUnavailable, spec.md §7).
func zeroPrefixedUUID() string {
	var raw [16]byte // all zero
	return strings.ToUpper(formatHyphenated(raw[:]))
}

// formatHyphenated renders 16 raw bytes as 8-4-4-4-12 hex, the modern
// on-disk UUID layout (spec.md §4.4 step 5, §6).
func formatHyphenated(raw []byte) string {
	h := hex.EncodeToString(raw)
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}

// formatCompact renders 16 raw bytes as 32 uppercase hex chars with no
// hyphens, the legacy (pre-boost-uuid) on-disk layout (spec.md §4.4 read
// step 6).
func formatCompact(raw []byte) string {
	return strings.ToUpper(hex.EncodeToString(raw))
}
