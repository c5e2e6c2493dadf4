// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command vdbarchive-inspect prints an archive's header and per-grid
// descriptors without decoding any grid's metadata, transform, topology, or
// voxel buffers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Mu-L/vdbarchive/archive"
	"github.com/Mu-L/vdbarchive/mappedfile"
)

func main() {
	verbose := pflag.BoolP("verbose", "v", false, "log warnings to stderr")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vdbarchive-inspect [-v] <file>")
		os.Exit(2)
	}

	if err := run(pflag.Arg(0), *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "vdbarchive-inspect:", err)
		os.Exit(1)
	}
}

func run(path string, verbose bool) error {
	var opts []archive.Option
	if verbose {
		logger, _ := zap.NewDevelopment()
		opts = append(opts, archive.WithLogger(logger.Sugar()))
	}
	a := archive.New(opts...)

	// Inspect only ever seeks past grid bodies, never decodes them, so a
	// memory map lets the OS page in just the descriptor bytes it touches
	// instead of this process reading the whole file up front.
	mf, err := mappedfile.Open(path, false)
	if err != nil {
		f, ferr := os.Open(path)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		grids, ierr := a.Inspect(f)
		if ierr != nil {
			return ierr
		}
		return printSummary(a, grids)
	}
	defer mf.Release()

	buf, err := mf.Buffer(0, int64(mf.Len()))
	if err != nil {
		return err
	}
	grids, err := a.Inspect(buf)
	if err != nil {
		return err
	}
	return printSummary(a, grids)
}

func printSummary(a *archive.Archive, grids []archive.GridSummary) error {
	fmt.Printf("file version %d, library %d.%d, uuid %s\n", a.FileVersion, a.LibMajor, a.LibMinor, a.UUID)
	fmt.Printf("%d grid(s)\n", len(grids))
	for _, g := range grids {
		if g.IsInstance {
			fmt.Printf("  %-24s type=%-16s instance-of=%s\n", g.Name, g.TypeTag, g.InstanceParent)
			continue
		}
		fmt.Printf("  %-24s type=%-16s halfFloat=%v compression=0x%02x bytes=%d\n",
			g.Name, g.TypeTag, g.HalfFloat, uint32(g.Compression), g.EndOffset-g.GridStartOffset)
	}
	return nil
}
