// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipecrc

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

const (
	maxWords = 10

	// 10-char frame field + ten 11-char word fields + '\n'.
	maxLineLen = 10 + 11*maxWords + 1

	// 6 fields, 8 chars each, space separated (5) + '\n'.
	legacyLineLen = 6*8 + 5 + 1
)

// frameSentinel is what the generic ABI prints in place of the frame
// number when the frame counter was not available.
const frameSentinel = "XXXXXXXXXX"

// errDecode marks lines matching neither CRC line grammar.
var errDecode = xerrors.New("pipecrc: could not decode CRC line")

func parseHex(field string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(field, "0x"), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// decodeLegacy parses a legacy-ABI data line: exactly six
// 8-hex-digit fields, a frame number followed by five CRC words.
func decodeLegacy(line string) (CRC, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return CRC{}, xerrors.Errorf("pipecrc: invalid legacy CRC line %q: %w", line, errDecode)
	}

	crc := CRC{
		ValidFrame: true,
		Words:      make([]uint32, 5),
	}
	for i, f := range fields {
		if len(f) != 8 {
			return CRC{}, xerrors.Errorf("pipecrc: invalid legacy CRC field %q in line %q: %w", f, line, errDecode)
		}
		v, err := parseHex(f)
		if err != nil {
			return CRC{}, xerrors.Errorf("pipecrc: invalid legacy CRC field %q in line %q: %w", f, line, errDecode)
		}
		if i == 0 {
			crc.Frame = v
			continue
		}
		crc.Words[i-1] = v
	}
	return crc, nil
}

// decodeGeneric parses a generic-ABI data line: a frame field, either a
// hex frame number or the all-X placeholder, followed by up to ten hex
// CRC words.
func decodeGeneric(line string) (CRC, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CRC{}, xerrors.Errorf("pipecrc: empty CRC line: %w", errDecode)
	}

	var crc CRC
	switch fields[0] {
	case frameSentinel:
		crc.ValidFrame = false
	default:
		v, err := parseHex(fields[0])
		if err != nil {
			return CRC{}, xerrors.Errorf("pipecrc: invalid frame field %q in line %q: %w", fields[0], line, errDecode)
		}
		crc.Frame = v
		crc.ValidFrame = true
	}

	words := fields[1:]
	if len(words) > maxWords {
		return CRC{}, xerrors.Errorf("pipecrc: too many CRC words (%d) in line %q: %w", len(words), line, errDecode)
	}
	crc.Words = make([]uint32, len(words))
	for i, f := range words {
		v, err := parseHex(f)
		if err != nil {
			return CRC{}, xerrors.Errorf("pipecrc: invalid CRC word %q in line %q: %w", f, line, errDecode)
		}
		crc.Words[i] = v
	}
	return crc, nil
}
