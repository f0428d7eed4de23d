// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fbc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-drm/kmstest/debugfs"
)

func fakeFS(t *testing.T, status string) *debugfs.FS {
	t.Helper()
	dir := t.TempDir()
	if status != "" {
		err := os.WriteFile(filepath.Join(dir, "i915_fbc_status"), []byte(status), 0644)
		if err != nil {
			t.Fatalf("could not write status node: %+v", err)
		}
	}
	fs, err := debugfs.At(dir)
	if err != nil {
		t.Fatalf("could not open fake debugfs: %+v", err)
	}
	t.Cleanup(func() { fs.Close() })
	return fs
}

func TestStatus(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  string
		enabled bool
		reason  string
		err     bool
	}{
		{
			name:    "enabled",
			status:  "FBC enabled\n",
			enabled: true,
		},
		{
			name:    "enabled-with-detail",
			status:  "FBC enabled\nCompressing: yes\n",
			enabled: true,
		},
		{
			name:   "disabled",
			status: "FBC disabled: no suitable CRTC for FBC\n",
			reason: "no suitable CRTC for FBC",
		},
		{
			name:   "disabled-no-reason",
			status: "FBC disabled\n",
			reason: "FBC disabled",
		},
		{
			name:   "garbage",
			status: "unexpected\n",
			err:    true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fs := fakeFS(t, tc.status)
			enabled, reason, err := Status(fs)
			if tc.err {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("could not read status: %+v", err)
			}
			if enabled != tc.enabled {
				t.Fatalf("invalid enabled state: got=%v, want=%v", enabled, tc.enabled)
			}
			if reason != tc.reason {
				t.Fatalf("invalid reason: got=%q, want=%q", reason, tc.reason)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	if got := Supported(fakeFS(t, "FBC enabled\n")); !got {
		t.Fatalf("status node present but not detected")
	}
	if got := Supported(fakeFS(t, "")); got {
		t.Fatalf("missing status node reported as supported")
	}
}

func TestWait(t *testing.T) {
	fs := fakeFS(t, "FBC enabled\n")
	if err := Wait(fs, true, 100*time.Millisecond); err != nil {
		t.Fatalf("wait for enabled state failed: %+v", err)
	}
	err := Wait(fs, false, 100*time.Millisecond)
	if err == nil {
		t.Fatalf("expected a timeout waiting for disabled state")
	}
}
