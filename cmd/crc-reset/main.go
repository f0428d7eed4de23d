// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// crc-reset force-disables pipe CRC capture on all DRM devices.
//
// The legacy CRC ABI keeps the hardware capturing until a disable
// command is written, so a crashed test run can leave capture logic
// armed. Run crc-reset to sweep it clean.
package main // import "github.com/go-drm/kmstest/cmd/crc-reset"

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-drm/kmstest/pipecrc"
)

func main() {
	log.SetPrefix("crc-reset: ")
	log.SetFlags(0)

	dir := flag.String("dev", "/dev/dri", "DRM device directory")
	flag.Parse()

	if err := run(*dir); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(dir string) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var grp errgroup.Group
	for _, e := range ents {
		name := e.Name()
		if !strings.HasPrefix(name, "card") {
			continue
		}
		grp.Go(func() error {
			dev, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY, 0)
			if err != nil {
				log.Printf("skipping %s: %+v", name, err)
				return nil
			}
			defer dev.Close()

			if err := pipecrc.ResetAll(dev); err != nil {
				log.Printf("could not reset %s: %+v", name, err)
				return nil
			}
			log.Printf("reset CRC capture on %s", name)
			return nil
		})
	}
	return grp.Wait()
}
