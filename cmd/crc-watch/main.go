// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// crc-watch monitors a display pipe for unexpected content changes.
//
// It collects one CRC per interval and logs every change of value,
// together with the FBC state, to a rotating log file. On a supposedly
// static screen a changing CRC points at flicker, corruption or an
// unexpected compositor update.
package main // import "github.com/go-drm/kmstest/cmd/crc-watch"

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/go-drm/kmstest/debugfs"
	"github.com/go-drm/kmstest/fbc"
	"github.com/go-drm/kmstest/kms"
	"github.com/go-drm/kmstest/pipecrc"
)

func main() {
	log.SetPrefix("crc-watch: ")
	log.SetFlags(0)

	var (
		card     = flag.Int("card", 0, "DRM card index")
		pipeName = flag.String("pipe", "A", "display pipe (A-F or CRTC index)")
		interval = flag.Duration("interval", 1*time.Second, "time between CRC samples")
		logFile  = flag.String("log", "crc-watch.log", "rotating log file")
		maxSize  = flag.Int("log-max-size", 10, "max log size in MiB before rotation")
	)
	flag.Parse()

	msg := newLogger(*logFile, *maxSize)
	defer msg.Sync()

	if err := run(msg, *card, *pipeName, *interval); err != nil {
		log.Fatalf("%+v", err)
	}
}

func newLogger(file string, maxSize int) *zap.SugaredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(cfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   file,
				MaxSize:    maxSize,
				MaxBackups: 5,
				LocalTime:  true,
			}),
			zapcore.InfoLevel,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.AddSync(os.Stderr),
			zapcore.InfoLevel,
		),
	)
	return zap.New(core).Sugar()
}

func run(msg *zap.SugaredLogger, card int, pipeName string, interval time.Duration) error {
	pipe, err := kms.ParsePipe(pipeName)
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

	fs, err := debugfs.Dir(dev)
	if err != nil {
		return err
	}
	defer fs.Close()

	s, err := pipecrc.New(dev, pipe, pipecrc.SourceAuto)
	if err != nil {
		return err
	}
	defer s.Free()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, unix.SIGTERM)
	defer signal.Stop(stop)

	msg.Infow("watching pipe CRCs",
		"card", card,
		"pipe", pipe.Name(),
		"interval", interval,
	)

	var (
		last    pipecrc.CRC
		haveRef bool
		tick    = time.NewTicker(interval)
	)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			msg.Infow("stopping")
			return nil
		case <-tick.C:
		}

		crc, err := s.CollectCRC()
		if err != nil {
			msg.Errorw("could not collect CRC", "err", err)
			continue
		}

		if haveRef && last.Equal(&crc) {
			continue
		}

		fields := []interface{}{
			"frame", crc.Frame,
			"crc", crc.String(),
		}
		if fbc.Supported(fs) {
			enabled, reason, err := fbc.Status(fs)
			if err == nil {
				fields = append(fields, "fbc", enabled)
				if !enabled {
					fields = append(fields, "fbc_reason", reason)
				}
			}
		}

		if haveRef {
			msg.Warnw("pipe content changed", fields...)
		} else {
			msg.Infow("reference CRC", fields...)
		}
		last = crc
		haveRef = true
	}
}
