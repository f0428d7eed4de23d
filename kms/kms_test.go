// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kms

import "testing"

func TestPipeName(t *testing.T) {
	for _, tc := range []struct {
		pipe Pipe
		want string
	}{
		{pipe: PipeA, want: "A"},
		{pipe: PipeB, want: "B"},
		{pipe: PipeF, want: "F"},
		{pipe: Pipe(-1), want: "invalid"},
		{pipe: Pipe(42), want: "invalid"},
	} {
		if got := tc.pipe.Name(); got != tc.want {
			t.Fatalf("invalid name for pipe %d: got=%q, want=%q", int(tc.pipe), got, tc.want)
		}
	}

	if got, want := PipeC.String(), "pipe C"; got != want {
		t.Fatalf("invalid string: got=%q, want=%q", got, want)
	}
}

func TestParsePipe(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Pipe
		err  bool
	}{
		{in: "A", want: PipeA},
		{in: "b", want: PipeB},
		{in: "0", want: PipeA},
		{in: "2", want: PipeC},
		{in: "G", err: true},
		{in: "6", err: true},
		{in: "-1", err: true},
		{in: "", err: true},
		{in: "AB", err: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePipe(tc.in)
			if tc.err {
				if err == nil {
					t.Fatalf("expected an error, got pipe %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not parse pipe: %+v", err)
			}
			if got != tc.want {
				t.Fatalf("invalid pipe: got=%v, want=%v", got, tc.want)
			}
		})
	}
}
