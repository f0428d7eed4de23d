// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pipe-crc captures and displays pipe CRCs from a DRM device.
//
// Usage: pipe-crc [OPTIONS]
//
// Example:
//
//	$> pipe-crc -card 0 -pipe A -source auto -n 4
//	frame=00012a05 crc=71afe9ac 0000dead 0000beef
//	frame=00012a06 crc=71afe9ac 0000dead 0000beef
//	[...]
package main // import "github.com/go-drm/kmstest/cmd/pipe-crc"

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-drm/kmstest/kms"
	"github.com/go-drm/kmstest/pipecrc"
)

func main() {
	log.SetPrefix("pipe-crc: ")
	log.SetFlags(0)

	var (
		card     = flag.Int("card", 0, "DRM card index")
		pipeName = flag.String("pipe", "A", "display pipe (A-F or CRTC index)")
		srcName  = flag.String("source", "auto", "CRC source tap point")
		n        = flag.Int("n", 1, "number of CRCs to capture")
		nonblock = flag.Bool("nonblock", false, "use non-blocking reads")
	)

	flag.Usage = func() {
		fmt.Printf(`pipe-crc captures and displays pipe CRCs from a DRM device.

Usage: pipe-crc [OPTIONS]

Example:

 $> pipe-crc -card 0 -pipe A -source auto -n 4
 frame=00012a05 crc=71afe9ac 0000dead 0000beef
 frame=00012a06 crc=71afe9ac 0000dead 0000beef
 [...]

`)
		flag.PrintDefaults()
	}

	flag.Parse()

	err := run(os.Stdout, *card, *pipeName, *srcName, *n, *nonblock)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(w *os.File, card int, pipeName, srcName string, n int, nonblock bool) error {
	pipe, err := kms.ParsePipe(pipeName)
	if err != nil {
		return err
	}
	source, err := pipecrc.ParseSource(srcName)
	if err != nil {
		return err
	}

	dev, err := kms.OpenCard(card)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := pipecrc.Supported(dev); err != nil {
		return err
	}

	newSession := pipecrc.New
	if nonblock {
		newSession = pipecrc.NewNonblock
	}
	s, err := newSession(dev, pipe, source)
	if err != nil {
		return err
	}
	defer s.Free()

	if n == 1 {
		crc, err := s.CollectCRC()
		if err != nil {
			return err
		}
		printCRC(w, &crc)
		return nil
	}

	ok, err := s.Start()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("source %s rejected on pipe %s", source, pipe.Name())
	}
	defer s.Stop()

	crcs, err := s.GetCRCs(n)
	if err != nil {
		return err
	}
	if len(crcs) < n {
		log.Printf("short read: %d of %d CRCs", len(crcs), n)
	}
	for i := range crcs {
		printCRC(w, &crcs[i])
	}
	return nil
}

func printCRC(w *os.File, crc *pipecrc.CRC) {
	if !crc.ValidFrame {
		fmt.Fprintf(w, "frame=XXXXXXXX crc=%v\n", crc)
		return
	}
	fmt.Fprintf(w, "frame=%08x crc=%v\n", crc.Frame, crc)
}
