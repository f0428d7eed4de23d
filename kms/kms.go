// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kms holds display pipe naming and KMS enumeration helpers.
package kms // import "github.com/go-drm/kmstest/kms"

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Pipe identifies a display pipe (CRTC index).
type Pipe int

const (
	PipeA Pipe = iota
	PipeB
	PipeC
	PipeD
	PipeE
	PipeF

	numPipes = int(PipeF) + 1
)

// Name returns the short pipe name ("A", "B", ...).
func (p Pipe) Name() string {
	if p < 0 || int(p) >= numPipes {
		return "invalid"
	}
	return string(rune('A' + p))
}

func (p Pipe) String() string { return "pipe " + p.Name() }

// ParsePipe accepts a pipe letter ("A", "b") or a CRTC index ("0").
func ParsePipe(s string) (Pipe, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= numPipes {
			return 0, fmt.Errorf("kms: invalid pipe index %d", n)
		}
		return Pipe(n), nil
	}
	up := strings.ToUpper(s)
	if len(up) == 1 && up[0] >= 'A' && up[0] <= 'F' {
		return Pipe(up[0] - 'A'), nil
	}
	return 0, fmt.Errorf("kms: invalid pipe %q", s)
}

// OpenCard opens the primary DRM node of card n.
func OpenCard(n int) (*os.File, error) {
	name := fmt.Sprintf("/dev/dri/card%d", n)
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("kms: could not open DRM device %s: %w", name, err)
	}
	return f, nil
}
