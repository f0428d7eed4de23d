// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kmstest provides validation libraries and tools for the Linux
// KMS/DRM display stack: debugfs access, pipe CRC capture, display
// enumeration and frame-buffer compression helpers.
package kmstest // import "github.com/go-drm/kmstest"
