// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package debugfs locates the kernel debug filesystem and resolves the
// per-device debug directory of a DRM device.
package debugfs // import "github.com/go-drm/kmstest/debugfs"

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Well-known debugfs mount points, in probe order.
var roots = [...]string{"/debug", "/sys/kernel/debug"}

// Mount returns the debugfs mount root, mounting debugfs at
// /sys/kernel/debug if it is not mounted anywhere it is expected.
func Mount() (string, error) {
	for _, root := range roots {
		if _, err := os.Stat(filepath.Join(root, "dri")); err == nil {
			return root, nil
		}
	}

	root := roots[len(roots)-1]
	ok, err := isMountpoint(root)
	if err != nil {
		return "", fmt.Errorf("debugfs: could not stat %s: %w", root, err)
	}
	if !ok {
		if err := unix.Mount("debug", root, "debugfs", 0, ""); err != nil {
			return "", fmt.Errorf("debugfs: could not mount debugfs at %s: %w", root, err)
		}
	}
	return root, nil
}

func isMountpoint(path string) (bool, error) {
	var dot, dotdot unix.Stat_t
	if err := unix.Stat(filepath.Join(path, "."), &dot); err != nil {
		return false, err
	}
	if err := unix.Stat(filepath.Join(path, ".."), &dotdot); err != nil {
		return false, err
	}
	return dot.Dev != dotdot.Dev, nil
}

// FS gives access to the debug directory of one DRM device. Opens are
// relative to that directory.
type FS struct {
	dir  *os.File
	path string
}

// Dir resolves the debugfs directory of the DRM device dev.
func Dir(dev *os.File) (*FS, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(dev.Fd()), &st); err != nil {
		return nil, fmt.Errorf("debugfs: could not stat DRM device %s: %w", dev.Name(), err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFCHR {
		return nil, fmt.Errorf("debugfs: %s is not a character device", dev.Name())
	}

	root, err := Mount()
	if err != nil {
		return nil, err
	}

	dir, err := lookupDir(root, int(unix.Minor(st.Rdev)))
	if err != nil {
		return nil, err
	}
	return At(dir)
}

// lookupDir maps a DRM minor number to its numbered debugfs directory.
// Minors below 64 map directly. Render and other high-numbered nodes
// share their debug directory with a primary node, so their "name" file
// is matched byte-for-byte against the first 16 candidates.
func lookupDir(root string, minor int) (string, error) {
	want, err := os.ReadFile(filepath.Join(root, "dri", strconv.Itoa(minor), "name"))
	if err != nil {
		return "", fmt.Errorf("debugfs: no debug directory for DRM minor %d: %w", minor, err)
	}

	if minor < 64 {
		return filepath.Join(root, "dri", strconv.Itoa(minor)), nil
	}

	for idx := 0; idx < 16; idx++ {
		got, err := os.ReadFile(filepath.Join(root, "dri", strconv.Itoa(idx), "name"))
		if err != nil {
			return "", fmt.Errorf("debugfs: could not read name of DRM minor %d: %w", idx, err)
		}
		if bytes.Equal(got, want) {
			return filepath.Join(root, "dri", strconv.Itoa(idx)), nil
		}
	}
	return "", fmt.Errorf("debugfs: no debug directory matching DRM minor %d", minor)
}

// At returns an FS rooted at an already known debug directory.
func At(path string) (*FS, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("debugfs: could not open %s: %w", path, err)
	}
	return &FS{dir: dir, path: path}, nil
}

// Path returns the absolute path of the debug directory.
func (fs *FS) Path() string { return fs.path }

// Open opens the debug node name, relative to the device directory,
// with the given open(2) flags.
func (fs *FS) Open(name string, flag int) (*os.File, error) {
	full := filepath.Join(fs.path, name)
	fd, err := unix.Openat(int(fs.dir.Fd()), name, flag|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "openat", Path: full, Err: err}
	}
	return os.NewFile(uintptr(fd), full), nil
}

// OpenFD is like Open but returns the raw file descriptor, for callers
// that manage blocking semantics themselves. os.File would reset
// O_NONBLOCK behind our back when its Fd method is used.
func (fs *FS) OpenFD(name string, flag int) (int, error) {
	fd, err := unix.Openat(int(fs.dir.Fd()), name, flag|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, &os.PathError{Op: "openat", Path: filepath.Join(fs.path, name), Err: err}
	}
	return fd, nil
}

// ReadFile reads the whole content of the debug node name.
func (fs *FS) ReadFile(name string) ([]byte, error) {
	f, err := fs.Open(name, unix.O_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Contains reports whether any line of the debug node name contains
// substring.
func (fs *FS) Contains(name, substring string) (bool, error) {
	f, err := fs.Open(name, unix.O_RDONLY)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.Contains(sc.Text(), substring) {
			return true, nil
		}
	}
	return false, sc.Err()
}

// Close releases the directory handle. The FS is unusable afterwards.
func (fs *FS) Close() error {
	if fs == nil || fs.dir == nil {
		return nil
	}
	err := fs.dir.Close()
	fs.dir = nil
	return err
}
