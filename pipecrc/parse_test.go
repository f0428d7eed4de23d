// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeLegacy(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
		want CRC
		err  bool
	}{
		{
			name: "valid",
			line: "00000001 0000abcd 00000000 00000000 00000000 00000000",
			want: CRC{
				Frame:      1,
				ValidFrame: true,
				Words:      []uint32{0xabcd, 0, 0, 0, 0},
			},
		},
		{
			name: "valid-all-words",
			line: "0000002a deadbeef cafebabe 00c0ffee 12345678 9abcdef0",
			want: CRC{
				Frame:      0x2a,
				ValidFrame: true,
				Words:      []uint32{0xdeadbeef, 0xcafebabe, 0x00c0ffee, 0x12345678, 0x9abcdef0},
			},
		},
		{
			name: "too-few-fields",
			line: "00000001 0000abcd 00000000 00000000 00000000",
			err:  true,
		},
		{
			name: "too-many-fields",
			line: "00000001 0000abcd 00000000 00000000 00000000 00000000 00000000",
			err:  true,
		},
		{
			name: "short-field",
			line: "00000001 abcd 00000000 00000000 00000000 00000000",
			err:  true,
		},
		{
			name: "not-hex",
			line: "00000001 0000zzzz 00000000 00000000 00000000 00000000",
			err:  true,
		},
		{
			name: "empty",
			line: "",
			err:  true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeLegacy(tc.line)
			if tc.err {
				if err == nil {
					t.Fatalf("expected a decode error, got %v", &got)
				}
				if !errors.Is(err, errDecode) {
					t.Fatalf("error does not wrap errDecode: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not decode line: %+v", err)
			}
			checkCRC(t, got, tc.want)
		})
	}
}

func TestDecodeGeneric(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
		want CRC
		err  bool
	}{
		{
			name: "two-words",
			line: "00000005 deadbeef cafebabe ",
			want: CRC{
				Frame:      5,
				ValidFrame: true,
				Words:      []uint32{0xdeadbeef, 0xcafebabe},
			},
		},
		{
			name: "invalid-frame-sentinel",
			line: "XXXXXXXXXX",
			want: CRC{
				ValidFrame: false,
				Words:      []uint32{},
			},
		},
		{
			name: "sentinel-with-words",
			line: "XXXXXXXXXX 0000abcd ",
			want: CRC{
				ValidFrame: false,
				Words:      []uint32{0xabcd},
			},
		},
		{
			name: "hex-prefixed-fields",
			line: "0x00000005 0xdeadbeef ",
			want: CRC{
				Frame:      5,
				ValidFrame: true,
				Words:      []uint32{0xdeadbeef},
			},
		},
		{
			name: "ten-words",
			line: "0000000a 00000001 00000002 00000003 00000004 00000005 00000006 00000007 00000008 00000009 0000000a ",
			want: CRC{
				Frame:      0xa,
				ValidFrame: true,
				Words:      []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 0xa},
			},
		},
		{
			name: "eleven-words",
			line: "0000000a 00000001 00000002 00000003 00000004 00000005 00000006 00000007 00000008 00000009 0000000a 0000000b ",
			err:  true,
		},
		{
			name: "bad-frame",
			line: "notaframe 00000001 ",
			err:  true,
		},
		{
			name: "bad-word",
			line: "00000005 zzzzzzzz ",
			err:  true,
		},
		{
			name: "empty",
			line: "",
			err:  true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeGeneric(tc.line)
			if tc.err {
				if err == nil {
					t.Fatalf("expected a decode error, got %v", &got)
				}
				if !errors.Is(err, errDecode) {
					t.Fatalf("error does not wrap errDecode: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not decode line: %+v", err)
			}
			checkCRC(t, got, tc.want)
		})
	}
}

// Decoding a generic line and re-encoding its word sequence
// round-trips the hex values.
func TestGenericRoundTrip(t *testing.T) {
	for _, line := range []string{
		"00000005 deadbeef cafebabe ",
		"00000001 0000ABCD 00C0FFEE ",
		"000000ff 12345678 ",
	} {
		t.Run(line, func(t *testing.T) {
			crc, err := decodeGeneric(line)
			if err != nil {
				t.Fatalf("could not decode line: %+v", err)
			}
			_, words, _ := strings.Cut(line, " ")
			if got := crc.String(); !strings.EqualFold(got, words) {
				t.Fatalf("round-trip mismatch: got=%q, want=%q", got, words)
			}
		})
	}
}

func checkCRC(t *testing.T, got, want CRC) {
	t.Helper()
	if got.Frame != want.Frame {
		t.Fatalf("invalid frame: got=%d, want=%d", got.Frame, want.Frame)
	}
	if got.ValidFrame != want.ValidFrame {
		t.Fatalf("invalid frame validity: got=%v, want=%v", got.ValidFrame, want.ValidFrame)
	}
	if len(got.Words) != len(want.Words) {
		t.Fatalf("invalid word count: got=%d, want=%d", len(got.Words), len(want.Words))
	}
	for i := range got.Words {
		if got.Words[i] != want.Words[i] {
			t.Fatalf("invalid word %d: got=0x%08x, want=0x%08x", i, got.Words[i], want.Words[i])
		}
	}
}
