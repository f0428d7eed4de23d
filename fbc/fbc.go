// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fbc reads the frame-buffer compression state of an i915
// device through debugfs.
package fbc // import "github.com/go-drm/kmstest/fbc"

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-drm/kmstest/debugfs"
)

const statusNode = "i915_fbc_status"

// Supported reports whether the device exposes an FBC status node.
func Supported(fs *debugfs.FS) bool {
	_, err := fs.ReadFile(statusNode)
	return err == nil
}

// Status reports whether FBC is currently enabled. When it is not, the
// kernel's reason string is returned alongside.
func Status(fs *debugfs.FS) (enabled bool, reason string, err error) {
	raw, err := fs.ReadFile(statusNode)
	if err != nil {
		return false, "", fmt.Errorf("fbc: could not read FBC status: %w", err)
	}

	txt := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(txt, "FBC enabled"):
		return true, "", nil
	case strings.HasPrefix(txt, "FBC disabled"):
		reason := txt
		if i := strings.Index(txt, ":"); i >= 0 {
			reason = strings.TrimSpace(txt[i+1:])
		}
		if j := strings.IndexByte(reason, '\n'); j >= 0 {
			reason = reason[:j]
		}
		return false, reason, nil
	}
	return false, "", fmt.Errorf("fbc: unexpected FBC status %q", txt)
}

// Wait polls the FBC status until it matches enabled, or the timeout
// expires. FBC engages lazily, typically within a couple of frames of
// the last front-buffer write.
func Wait(fs *debugfs.FS, enabled bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		got, _, err := Status(fs)
		if err != nil {
			return err
		}
		if got == enabled {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("fbc: FBC did not become enabled=%v within %v", enabled, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
