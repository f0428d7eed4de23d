// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exithook

import "testing"

func TestOnce(t *testing.T) {
	var (
		n1 int
		n2 int
	)

	Once("hook-1", func() { n1++ })
	Once("hook-1", func() { n1 += 100 }) // dup, dropped
	Once("hook-2", func() { n2++ })

	Run()

	if got, want := n1, 1; got != want {
		t.Fatalf("invalid hook-1 run count: got=%d, want=%d", got, want)
	}
	if got, want := n2, 1; got != want {
		t.Fatalf("invalid hook-2 run count: got=%d, want=%d", got, want)
	}

	// hooks are consumed by Run.
	Run()
	if got, want := n1+n2, 2; got != want {
		t.Fatalf("hooks ran twice: got=%d, want=%d", got, want)
	}
}

func TestRunOrder(t *testing.T) {
	var order []string
	Once("first", func() { order = append(order, "first") })
	Once("second", func() { order = append(order, "second") })

	Run()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("invalid run order: got=%v, want=[second first]", order)
	}
}
