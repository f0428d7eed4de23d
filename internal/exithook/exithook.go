// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exithook runs registered cleanup functions when the process is
// terminated by a signal.
package exithook // import "github.com/go-drm/kmstest/internal/exithook"

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

var reg struct {
	sync.Mutex
	hooks     map[string]func()
	order     []string
	installed bool
	sig       chan os.Signal
}

// Once registers fn under key. Registering the same key twice is a no-op:
// only the first function is kept. The first registration installs the
// process-wide signal handler.
func Once(key string, fn func()) {
	reg.Lock()
	defer reg.Unlock()

	if reg.hooks == nil {
		reg.hooks = make(map[string]func())
	}
	if _, dup := reg.hooks[key]; dup {
		return
	}
	reg.hooks[key] = fn
	reg.order = append(reg.order, key)

	if !reg.installed {
		reg.installed = true
		reg.sig = make(chan os.Signal, 1)
		signal.Notify(reg.sig, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
		go wait(reg.sig)
	}
}

// Run invokes all registered hooks, most recently registered first.
// Each hook runs at most once per registration.
func Run() {
	reg.Lock()
	order := reg.order
	hooks := reg.hooks
	reg.order = nil
	reg.hooks = nil
	reg.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		hooks[order[i]]()
	}
}

func wait(ch chan os.Signal) {
	sig, ok := <-ch
	if !ok {
		return
	}
	Run()
	signal.Stop(ch)
	if s, isUnix := sig.(unix.Signal); isUnix {
		_ = unix.Kill(unix.Getpid(), s)
		return
	}
	os.Exit(1)
}
