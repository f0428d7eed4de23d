// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/go-drm/kmstest/debugfs"
	"github.com/go-drm/kmstest/internal/exithook"
	"github.com/go-drm/kmstest/kms"
)

var (
	// ErrNotSupported reports that the kernel exposes no pipe CRC
	// interface for the device. Test code should skip, not fail.
	ErrNotSupported = xerrors.New("pipecrc: pipe CRC not supported")

	// ErrInvariant reports a broken kernel ABI contract: a control
	// write or an open of a node that must exist failed. Not a
	// recoverable runtime condition.
	ErrInvariant = xerrors.New("pipecrc: kernel CRC ABI contract violation")
)

const defaultTimeout = 5 * time.Second

// Session is a CRC capture session bound to one device, pipe and
// source. At most one session may be capturing on a physical pipe at a
// time; that exclusion is the caller's responsibility. A Session must
// not be shared between goroutines.
type Session struct {
	msg     *log.Logger
	fs      *debugfs.FS
	abi     capture
	pipe    kms.Pipe
	source  Source
	flags   int
	timeout time.Duration
	id      uuid.UUID
}

// Option configures a Session.
type Option func(*Session)

// WithLogger redirects the session diagnostics.
func WithLogger(msg *log.Logger) Option {
	return func(s *Session) { s.msg = msg }
}

// WithTimeout overrides the 5s watchdog bounding each blocking read.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// New creates a capture session for the given device, pipe and source,
// reading CRC data in blocking mode.
func New(dev *os.File, pipe kms.Pipe, source Source, opts ...Option) (*Session, error) {
	return newSession(dev, pipe, source, unix.O_RDONLY, opts...)
}

// NewNonblock is like New but reads CRC data in non-blocking mode, so
// that GetCRCs returns early when the kernel has nothing queued.
func NewNonblock(dev *os.File, pipe kms.Pipe, source Source, opts ...Option) (*Session, error) {
	return newSession(dev, pipe, source, unix.O_RDONLY|unix.O_NONBLOCK, opts...)
}

func newSession(dev *os.File, pipe kms.Pipe, source Source, flags int, opts ...Option) (*Session, error) {
	fs, err := debugfs.Dir(dev)
	if err != nil {
		return nil, xerrors.Errorf("pipecrc: could not resolve debugfs directory: %w", err)
	}

	// The legacy ABI keeps the hardware capturing when nobody writes
	// the disable command, so sweep all devices on abnormal exit.
	exithook.Once("pipecrc-reset", resetAllDevices)

	s, err := newSessionAt(fs, pipe, source, flags, opts...)
	if err != nil {
		_ = fs.Close()
		return nil, err
	}
	return s, nil
}

// newSessionAt binds a session to an already resolved debug directory.
// ABI negotiation happens here, once: a per-CRTC control node means the
// generic ABI, otherwise the global legacy control node must exist.
func newSessionAt(fs *debugfs.FS, pipe kms.Pipe, source Source, flags int, opts ...Option) (*Session, error) {
	s := &Session{
		msg:     log.New(os.Stderr, "pipecrc: ", 0),
		fs:      fs,
		pipe:    pipe,
		source:  source,
		flags:   flags,
		timeout: defaultTimeout,
		id:      uuid.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctl, err := fs.Open(fmt.Sprintf("crtc-%d/crc/control", int(pipe)), unix.O_WRONLY)
	if err == nil {
		s.abi = &genericCapture{
			fs:      fs,
			ctl:     ctl,
			pipe:    pipe,
			source:  source,
			flags:   flags,
			timeout: s.timeout,
		}
		s.msg.Printf("using generic frame CRC ABI")
		return s, nil
	}

	ctl, err = fs.Open(legacyCtlName, unix.O_WRONLY)
	if err != nil {
		return nil, xerrors.Errorf("pipecrc: no CRC control interface in %s: %w", fs.Path(), ErrNotSupported)
	}

	data, err := fs.OpenFD(fmt.Sprintf(legacyDataPattern, pipe.Name()), flags)
	if err != nil {
		_ = ctl.Close()
		return nil, xerrors.Errorf("pipecrc: could not open legacy CRC data node: %v: %w", err, ErrInvariant)
	}

	s.abi = &legacyCapture{
		ctl:    ctl,
		rd:     newLineReader(data, legacyLineLen, flags, s.timeout),
		pipe:   pipe,
		source: source,
	}
	s.msg.Printf("using legacy frame CRC ABI")
	return s, nil
}

// Pipe returns the pipe the session is bound to.
func (s *Session) Pipe() kms.Pipe { return s.pipe }

// Source returns the tap point the session is bound to.
func (s *Session) Source() Source { return s.source }

// Start arms CRC capture. It first disarms any lingering capture state,
// so calling Start on a capturing session restarts it. A false return
// with a nil error means the kernel rejected the configured source on
// this pipe; the caller may try another source or skip.
func (s *Session) Start() (bool, error) {
	if err := s.abi.stop(); err != nil {
		return false, err
	}
	ok, err := s.abi.start()
	if !ok || err != nil {
		return ok, err
	}

	var crc CRC
	for i := 0; i < s.abi.warmup(); i++ {
		if err := s.readOne(&crc); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Stop disarms CRC capture. Safe to call on a stopped session.
func (s *Session) Stop() error {
	return s.abi.stop()
}

// Free releases the control, data and directory handles. Safe on a nil
// or already freed session.
func (s *Session) Free() error {
	if s == nil {
		return nil
	}
	var err error
	if s.abi != nil {
		err = multierr.Append(err, s.abi.close())
		s.abi = nil
	}
	if s.fs != nil {
		err = multierr.Append(err, s.fs.Close())
		s.fs = nil
	}
	return err
}

// readCRC reads and decodes at most one CRC record. It returns the
// number of bytes consumed; zero means no data was available. A
// non-nil error wrapping errDecode reports a line matching neither
// grammar, with the byte count still non-zero.
func (s *Session) readCRC(out *CRC) (int, error) {
	line, err := s.abi.readLine()
	switch {
	case errors.Is(err, errWouldBlock):
		if s.flags&unix.O_NONBLOCK == 0 {
			return 0, xerrors.Errorf("pipecrc: EAGAIN on a blocking CRC read: %w", ErrInvariant)
		}
		return 0, nil
	case err != nil:
		return 0, err
	case len(line) == 0:
		return 0, nil
	}

	crc, err := s.abi.decode(strings.TrimSuffix(string(line), "\n"))
	if err != nil {
		return len(line), err
	}
	crc.tag = s.id
	*out = crc
	return len(line), nil
}

// readOne blocks until one record is read and decoded, retrying with a
// 1ms backoff while no data is available, bounded by the watchdog.
func (s *Session) readOne(out *CRC) error {
	start := time.Now()
	for {
		n, err := s.readCRC(out)
		switch {
		case err != nil && !errors.Is(err, errDecode):
			return err
		case n > 0 && err == nil:
			return nil
		}
		if time.Since(start) > s.timeout {
			return xerrors.Errorf("CRC reading: %w", ErrTimeout)
		}
		time.Sleep(1 * time.Millisecond)
	}
}

// GetCRCs reads up to n CRC records. Lines that fail to decode are
// skipped without consuming a slot. The read stops early, returning
// fewer than n records, as soon as a read yields no data; with a
// blocking session that can only happen through the watchdog, so a
// short result is the expected non-blocking-mode outcome.
//
// Callers arm and disarm the capture themselves with Start and Stop.
// For one-shot collection use CollectCRC.
func (s *Session) GetCRCs(n int) ([]CRC, error) {
	crcs := make([]CRC, 0, n)
	var crc CRC
	for len(crcs) < n {
		nb, err := s.readCRC(&crc)
		switch {
		case errors.Is(err, errDecode):
			continue
		case err != nil:
			return crcs, err
		case nb == 0:
			return crcs, nil
		}
		crcs = append(crcs, crc)
	}
	return crcs, nil
}

// CollectCRC captures exactly one CRC record: start, read, stop. It
// blocks until the record is available regardless of the session's read
// mode, and logs a warning when the record looks like it was read from
// powered-down or idle hardware.
func (s *Session) CollectCRC() (CRC, error) {
	ok, err := s.Start()
	if err != nil {
		return CRC{}, err
	}
	if !ok {
		return CRC{}, xerrors.Errorf("pipecrc: CRC source %s rejected on pipe %s", s.source, s.pipe.Name())
	}

	var crc CRC
	err = s.readOne(&crc)
	if stopErr := s.Stop(); err == nil {
		err = stopErr
	}
	if err != nil {
		return CRC{}, err
	}

	s.sanityCheck(&crc)
	return crc, nil
}

func (s *Session) sanityCheck(crc *CRC) {
	allZero := true
	for _, w := range crc.Words {
		if w == 0xffffffff {
			s.msg.Printf("suspicious CRC %v: looks like a read from a register in a powered down well", crc)
		}
		if w != 0 {
			allZero = false
		}
	}
	if allZero {
		s.msg.Printf("suspicious CRC %v: all words are zero", crc)
	}
}

// Supported reports whether the kernel exposes a pipe CRC interface for
// the device. A wrapped ErrNotSupported return lets test runners skip
// instead of fail.
func Supported(dev *os.File) error {
	fs, err := debugfs.Dir(dev)
	if err != nil {
		return xerrors.Errorf("pipecrc: could not resolve debugfs directory: %v: %w", err, ErrNotSupported)
	}
	defer fs.Close()
	return supportedAt(fs)
}

func supportedAt(fs *debugfs.FS) error {
	f, err := fs.Open("crtc-0/crc/control", unix.O_RDONLY)
	if err == nil {
		_ = f.Close()
		return nil
	}

	f, err = fs.Open(legacyCtlName, unix.O_WRONLY)
	if err != nil {
		return xerrors.Errorf("pipecrc: no display CRC control node, kernel too old: %w", ErrNotSupported)
	}
	defer f.Close()

	// On the legacy ABI the node exists even on platforms without CRC
	// logic; only a successful write proves support.
	if _, err := f.Write([]byte("pipe A none")); err != nil {
		return xerrors.Errorf("pipecrc: CRCs not supported on this platform: %w", ErrNotSupported)
	}
	return nil
}
