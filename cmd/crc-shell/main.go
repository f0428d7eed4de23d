// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// crc-shell is an interactive shell around a pipe CRC capture session,
// for poking at the kernel CRC interface by hand.
//
// Example:
//
//	$> crc-shell -card 0
//	crc> pipe B
//	crc> source plane1
//	crc> start
//	crc> get 4
//	frame=00012a05 crc=71afe9ac
//	[...]
//	crc> stop
//	crc> quit
package main // import "github.com/go-drm/kmstest/cmd/crc-shell"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/go-drm/kmstest/kms"
	"github.com/go-drm/kmstest/pipecrc"
)

func main() {
	log.SetPrefix("crc-shell: ")
	log.SetFlags(0)

	card := flag.Int("card", 0, "DRM card index")
	flag.Parse()

	dev, err := kms.OpenCard(*card)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	defer dev.Close()

	sh := &shell{
		dev:    dev,
		pipe:   kms.PipeA,
		source: pipecrc.SourceAuto,
	}
	defer sh.free()

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	for {
		cmd, err := term.Prompt("crc> ")
		switch err {
		case nil:
		case io.EOF, liner.ErrPromptAborted:
			fmt.Println()
			return
		default:
			log.Fatalf("could not read command: %+v", err)
		}
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		term.AppendHistory(cmd)
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err := sh.run(cmd); err != nil {
			log.Printf("%+v", err)
		}
	}
}

type shell struct {
	dev    *os.File
	pipe   kms.Pipe
	source pipecrc.Source
	s      *pipecrc.Session
}

func (sh *shell) run(cmd string) error {
	args := strings.Fields(cmd)
	switch args[0] {
	case "help":
		fmt.Print(`commands:
  pipe <A-F>      select the display pipe
  source <name>   select the CRC source tap point
  start           arm CRC capture
  stop            disarm CRC capture
  read            read one CRC (blocking)
  get <n>         read up to n CRCs
  status          show the current selection
  quit            leave
`)
		return nil

	case "status":
		fmt.Printf("pipe=%s source=%s capturing=%v\n",
			sh.pipe.Name(), sh.source, sh.s != nil)
		return nil

	case "pipe":
		if len(args) != 2 {
			return fmt.Errorf("usage: pipe <A-F>")
		}
		pipe, err := kms.ParsePipe(args[1])
		if err != nil {
			return err
		}
		sh.free()
		sh.pipe = pipe
		return nil

	case "source":
		if len(args) != 2 {
			return fmt.Errorf("usage: source <name>")
		}
		source, err := pipecrc.ParseSource(args[1])
		if err != nil {
			return err
		}
		sh.free()
		sh.source = source
		return nil

	case "start":
		if err := sh.open(); err != nil {
			return err
		}
		ok, err := sh.s.Start()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("source %s rejected on pipe %s", sh.source, sh.pipe.Name())
		}
		return nil

	case "stop":
		if sh.s == nil {
			return nil
		}
		return sh.s.Stop()

	case "read":
		if err := sh.open(); err != nil {
			return err
		}
		crc, err := sh.s.CollectCRC()
		if err != nil {
			return err
		}
		printCRC(&crc)
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: get <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[1])
		}
		if sh.s == nil {
			return fmt.Errorf("capture not started")
		}
		crcs, err := sh.s.GetCRCs(n)
		if err != nil {
			return err
		}
		for i := range crcs {
			printCRC(&crcs[i])
		}
		return nil
	}
	return fmt.Errorf("unknown command %q (try help)", args[0])
}

func (sh *shell) open() error {
	if sh.s != nil {
		return nil
	}
	s, err := pipecrc.New(sh.dev, sh.pipe, sh.source)
	if err != nil {
		return err
	}
	sh.s = s
	return nil
}

func (sh *shell) free() {
	if sh.s == nil {
		return
	}
	_ = sh.s.Stop()
	_ = sh.s.Free()
	sh.s = nil
}

func printCRC(crc *pipecrc.CRC) {
	if !crc.ValidFrame {
		fmt.Printf("frame=XXXXXXXX crc=%v\n", crc)
		return
	}
	fmt.Printf("frame=%08x crc=%v\n", crc.Frame, crc)
}
