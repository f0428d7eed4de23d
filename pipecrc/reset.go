// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/go-drm/kmstest/debugfs"
	"github.com/go-drm/kmstest/kms"
)

// ResetAll force-disables CRC capture on every pipe of the device.
// Only the legacy ABI actually needs this: it leaves the hardware
// capturing when nobody writes the disable command.
func ResetAll(dev *os.File) error {
	fs, err := debugfs.Dir(dev)
	if err != nil {
		return err
	}
	defer fs.Close()
	return resetAllAt(fs)
}

func resetAllAt(fs *debugfs.FS) error {
	ents, err := os.ReadDir(fs.Path())
	if err != nil {
		return err
	}

	var (
		errs error
		done bool
	)
	for _, e := range ents {
		if !strings.HasPrefix(e.Name(), "crtc-") {
			continue
		}
		f, err := fs.Open(e.Name()+"/crc/control", unix.O_WRONLY)
		if err != nil {
			continue
		}
		_, err = f.Write([]byte(SourceNone.String()))
		errs = multierr.Append(errs, err)
		errs = multierr.Append(errs, f.Close())
		done = true
	}
	if done {
		return errs
	}

	f, err := fs.Open(legacyCtlName, unix.O_WRONLY)
	if err != nil {
		return errs
	}
	defer f.Close()

	for _, pipe := range []kms.Pipe{kms.PipeA, kms.PipeB, kms.PipeC} {
		cmd := "pipe " + pipe.Name() + " " + SourceNone.String()
		if _, err := f.Write([]byte(cmd)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// resetAllDevices sweeps every DRM device node. Registered as an exit
// hook by the first session of the process.
func resetAllDevices() {
	ents, err := os.ReadDir("/dev/dri")
	if err != nil {
		return
	}
	for _, e := range ents {
		if !strings.HasPrefix(e.Name(), "card") {
			continue
		}
		dev, err := os.OpenFile(filepath.Join("/dev/dri", e.Name()), os.O_WRONLY, 0)
		if err != nil {
			continue
		}
		_ = ResetAll(dev)
		_ = dev.Close()
	}
}
