// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CRC is one decoded frame CRC record.
//
// Words holds the raw CRC values for one frame, between 1 and 10 of
// them depending on the ABI and tap point. ValidFrame is false when the
// kernel emitted the invalid-frame placeholder instead of a frame
// number.
type CRC struct {
	Frame      uint32
	ValidFrame bool
	Words      []uint32

	// session identity; records from different sessions are not
	// comparable.
	tag uuid.UUID
}

// String formats the CRC words as space-separated 8-digit hex values,
// for diagnostic output.
func (c *CRC) String() string {
	var b strings.Builder
	for _, w := range c.Words {
		fmt.Fprintf(&b, "%08x ", w)
	}
	return b.String()
}

// Equal compares the word sequences of two CRCs, element by element, up
// to the shorter of the two. Due to CRC collisions tests may only ever
// assert that CRCs match, never that they differ.
func (c *CRC) Equal(o *CRC) bool {
	n := len(c.Words)
	if len(o.Words) < n {
		n = len(o.Words)
	}
	for i := 0; i < n; i++ {
		if c.Words[i] != o.Words[i] {
			return false
		}
	}
	return true
}

// TB is the subset of testing.TB used by AssertEqual.
type TB interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

// AssertEqual fails the test when the two CRCs differ. It also fails
// fast when both records carry a session tag and the tags differ: CRC
// values are opaque and comparing across capture sessions is a test
// bug, not a pixel mismatch.
func AssertEqual(tb TB, a, b *CRC) {
	tb.Helper()

	var zero uuid.UUID
	if a.tag != zero && b.tag != zero && a.tag != b.tag {
		tb.Fatalf("pipecrc: comparing CRCs from different capture sessions (%s vs %s)", a.tag, b.tag)
	}
	if !a.Equal(b) {
		tb.Fatalf("pipecrc: CRC mismatch: got=%v, want=%v", a, b)
	}
}
