// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/go-drm/kmstest/debugfs"
	"github.com/go-drm/kmstest/kms"
)

// Legacy i915 debugfs node names. The generic ABI uses the per-CRTC
// crtc-<n>/crc/{control,data} layout instead.
const (
	legacyCtlName     = "i915_display_crc_ctl"
	legacyDataPattern = "i915_pipe_%s_crc"
)

// capture abstracts over the two kernel CRC ABI generations. The
// variant is chosen once, at session construction, and never changes.
type capture interface {
	// start arms CRC generation. A false return with a nil error
	// means the kernel rejected the configured source, which callers
	// may treat as recoverable.
	start() (bool, error)
	stop() error
	// warmup is the number of initial frames to read and discard
	// after arming.
	warmup() int
	readLine() ([]byte, error)
	decode(line string) (CRC, error)
	close() error
}

// genericCapture drives the per-CRTC CRC ABI: one control and one data
// node per pipe. The data node only exists while capture is armed.
type genericCapture struct {
	fs      *debugfs.FS
	ctl     *os.File
	rd      *lineReader
	pipe    kms.Pipe
	source  Source
	flags   int
	timeout time.Duration
}

func (c *genericCapture) start() (bool, error) {
	cmd := c.source.String()
	if _, err := c.ctl.Write([]byte(cmd)); err != nil {
		return false, xerrors.Errorf("pipecrc: could not write CRC control command %q: %v: %w", cmd, err, ErrInvariant)
	}

	fd, err := c.fs.OpenFD(fmt.Sprintf("crtc-%d/crc/data", int(c.pipe)), c.flags)
	switch {
	case err == nil:
		c.rd = newLineReader(fd, maxLineLen, c.flags, c.timeout)
		return true, nil
	case errors.Is(err, unix.EINVAL):
		// the kernel does not support this source on this pipe.
		return false, nil
	default:
		return false, xerrors.Errorf("pipecrc: could not open CRC data channel: %v: %w", err, ErrInvariant)
	}
}

func (c *genericCapture) stop() error {
	if c.rd == nil {
		return nil
	}
	err := c.rd.close()
	c.rd = nil
	return err
}

func (c *genericCapture) warmup() int { return 0 }

func (c *genericCapture) readLine() ([]byte, error) {
	if c.rd == nil {
		return nil, xerrors.Errorf("pipecrc: capture not started: %w", ErrInvariant)
	}
	return c.rd.readLine()
}

func (c *genericCapture) decode(line string) (CRC, error) {
	return decodeGeneric(line)
}

func (c *genericCapture) close() error {
	err := c.stop()
	if c.ctl != nil {
		err = multierr.Append(err, c.ctl.Close())
		c.ctl = nil
	}
	return err
}

// legacyCapture drives the old i915 CRC ABI: a single global control
// node and a fixed per-pipe data node which exists for the whole
// session, armed or not.
type legacyCapture struct {
	ctl    *os.File
	rd     *lineReader
	pipe   kms.Pipe
	source Source
}

func (c *legacyCapture) command(source string) error {
	cmd := fmt.Sprintf("pipe %s %s", c.pipe.Name(), source)
	if _, err := c.ctl.Write([]byte(cmd)); err != nil {
		return xerrors.Errorf("pipecrc: could not write CRC control command %q: %v: %w", cmd, err, ErrInvariant)
	}
	return nil
}

func (c *legacyCapture) start() (bool, error) {
	if err := c.command(c.source.String()); err != nil {
		return false, err
	}
	return true, nil
}

// stop writes the disable command. The hardware keeps capturing
// otherwise, even after the process exits.
func (c *legacyCapture) stop() error {
	return c.command(SourceNone.String())
}

// The first CRC after arming is bogus on older hardware, and on CHV the
// second one is not to be trusted either. Both are discarded.
func (c *legacyCapture) warmup() int { return 2 }

func (c *legacyCapture) readLine() ([]byte, error) {
	return c.rd.readLine()
}

func (c *legacyCapture) decode(line string) (CRC, error) {
	return decodeLegacy(line)
}

func (c *legacyCapture) close() error {
	var err error
	if c.ctl != nil {
		err = multierr.Append(err, c.ctl.Close())
		c.ctl = nil
	}
	if c.rd != nil {
		err = multierr.Append(err, c.rd.close())
		c.rd = nil
	}
	return err
}
