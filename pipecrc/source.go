// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipecrc captures display pipe CRCs through the kernel debugfs
// interface. It drives both the generic per-CRTC CRC ABI and the legacy
// i915 one, hiding the difference behind a single capture session.
//
// CRC values are opaque: they are only meaningful for equality
// comparison between records captured by the same session.
package pipecrc // import "github.com/go-drm/kmstest/pipecrc"

import "fmt"

// Source selects the display pipeline tap point feeding the CRC
// generator.
type Source int

const (
	SourceNone Source = iota
	SourcePlane1
	SourcePlane2
	SourcePF
	SourcePipe
	SourceTV
	SourceDPB
	SourceDPC
	SourceDPD
	// SourceAuto lets the kernel pick the tap point. It is the only
	// source available on every hardware generation and should be the
	// default for generic correctness tests.
	SourceAuto
)

var sourceNames = [...]string{
	SourceNone:   "none",
	SourcePlane1: "plane1",
	SourcePlane2: "plane2",
	SourcePF:     "pf",
	SourcePipe:   "pipe",
	SourceTV:     "TV",
	SourceDPB:    "DP-B",
	SourceDPC:    "DP-C",
	SourceDPD:    "DP-D",
	SourceAuto:   "auto",
}

// String returns the control-command name of the source.
func (src Source) String() string {
	if src < 0 || int(src) >= len(sourceNames) {
		return fmt.Sprintf("Source(%d)", int(src))
	}
	return sourceNames[src]
}

// ParseSource maps a control-command name back to a Source.
func ParseSource(s string) (Source, error) {
	for src, name := range sourceNames {
		if s == name {
			return Source(src), nil
		}
	}
	return 0, fmt.Errorf("pipecrc: unknown CRC source %q", s)
}
