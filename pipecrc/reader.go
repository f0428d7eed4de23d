// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"bytes"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

var (
	// ErrTimeout reports that the kernel produced no CRC data within
	// the session watchdog. This is a test-infrastructure failure.
	ErrTimeout = xerrors.New("pipecrc: timed out waiting for CRC data")

	errWouldBlock = xerrors.New("pipecrc: read would block")
)

// lineReader reads newline-terminated records from a CRC data channel.
//
// The kernel hands out one formatted line per read(2) as long as the
// buffer covers a full line, so max is sized for the worst case of the
// owning ABI. Data beyond the first newline (regular files in tests) is
// carried over to the next call.
type lineReader struct {
	fd      int
	max     int
	block   bool
	timeout time.Duration
	pending []byte
}

func newLineReader(fd, max, flags int, timeout time.Duration) *lineReader {
	return &lineReader{
		fd:      fd,
		max:     max,
		block:   flags&unix.O_NONBLOCK == 0,
		timeout: timeout,
	}
}

// readLine returns the next line, including its trailing newline if
// present. A nil line with nil error means no data is currently
// available. A blocked read is bounded by the watchdog timeout.
func (r *lineReader) readLine() ([]byte, error) {
	for {
		if i := bytes.IndexByte(r.pending, '\n'); i >= 0 {
			line := r.pending[:i+1]
			r.pending = r.pending[i+1:]
			return line, nil
		}

		if r.block {
			if err := r.wait(); err != nil {
				return nil, err
			}
		}

		buf := make([]byte, r.max)
		n, err := unix.Read(r.fd, buf)
		switch err {
		case nil:
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return nil, errWouldBlock
		default:
			return nil, xerrors.Errorf("pipecrc: could not read CRC data: %w", err)
		}

		if n == 0 {
			if len(r.pending) > 0 {
				// final unterminated line
				line := r.pending
				r.pending = nil
				return line, nil
			}
			return nil, nil
		}
		r.pending = append(r.pending, buf[:n]...)
	}
}

// wait polls the data channel until it is readable, bounded by the
// watchdog timeout.
func (r *lineReader) wait() error {
	fds := []unix.PollFd{{Fd: int32(r.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(r.timeout.Milliseconds()))
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return xerrors.Errorf("pipecrc: could not poll CRC data channel: %w", err)
		case n == 0:
			return xerrors.Errorf("CRC reading: %w", ErrTimeout)
		}
		return nil
	}
}

func (r *lineReader) close() error {
	if r == nil || r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}
