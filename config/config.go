// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads Archive defaults from a JSONC file, so a deployment
// can fix its compression, instancing, and delayed-load policy without
// recompiling (SPEC_FULL.md §4.8).
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"

	"github.com/Mu-L/vdbarchive/archive"
	"github.com/Mu-L/vdbarchive/compression"
)

// Defaults mirrors the subset of Archive construction options a deployment
// reasonably wants to pin from a config file rather than from Go code.
type Defaults struct {
	Seekable       bool   `json:"seekable"`
	WriteGridStats bool   `json:"writeGridStats"`
	Instancing     bool   `json:"instancing"`
	DelayedLoad    bool   `json:"delayedLoad"`
	Compression    string `json:"compression"` // "none", "zip", "blosc"
	ActiveMask     bool   `json:"activeMask"`
	BloscCodec     string `json:"bloscCodec"` // "lz4" or "zstd"
}

// Load reads and parses a JSONC (JSON-with-comments) config file at path.
func Load(path string) (*Defaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}
	d := &Defaults{
		Seekable:       true,
		WriteGridStats: true,
		Instancing:     true,
		DelayedLoad:    true,
		Compression:    "blosc",
		ActiveMask:     true,
		BloscCodec:     "lz4",
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), d); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	return d, nil
}

// Flags resolves the Compression/ActiveMask/BloscCodec fields into the
// concrete types the archive package expects.
func (d *Defaults) Flags() (compression.Flags, compression.BloscCodec) {
	var flags compression.Flags
	switch d.Compression {
	case "zip":
		flags = compression.Zip
	case "blosc":
		flags = compression.Blosc
	}
	if d.ActiveMask {
		flags |= compression.ActiveMask
	}

	codec := compression.BloscLZ4
	if d.BloscCodec == "zstd" {
		codec = compression.BloscZstd
	}
	return flags, codec
}

// Options converts the loaded defaults into archive.Option values ready to
// pass to archive.New.
func (d *Defaults) Options() []archive.Option {
	flags, codec := d.Flags()
	return []archive.Option{
		archive.WithSeekable(d.Seekable),
		archive.WithGridStats(d.WriteGridStats),
		archive.WithInstancing(d.Instancing),
		archive.WithDelayedLoading(d.DelayedLoad),
		archive.WithCompression(flags),
		archive.WithBloscCodec(codec),
	}
}
