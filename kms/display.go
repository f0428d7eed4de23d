// Copyright 2026 The go-drm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kms

import (
	"fmt"
	"os"

	"github.com/NeowayLabs/drm/mode"
)

// Connector describes one physical display connector.
type Connector struct {
	ID        uint32
	Type      uint32
	EncoderID uint32
	Connected bool
	Modes     int
}

// Display describes the mode-setting resources of one DRM device.
type Display struct {
	Crtcs      []uint32
	Connectors []Connector
}

// Probe enumerates the CRTCs and connectors of the DRM device f.
func Probe(f *os.File) (*Display, error) {
	res, err := mode.GetResources(f)
	if err != nil {
		return nil, fmt.Errorf("kms: could not get mode resources: %w", err)
	}

	d := &Display{Crtcs: res.Crtcs}
	for _, id := range res.Connectors {
		conn, err := mode.GetConnector(f, id)
		if err != nil {
			return nil, fmt.Errorf("kms: could not get connector %d: %w", id, err)
		}
		d.Connectors = append(d.Connectors, Connector{
			ID:        conn.ID,
			Type:      conn.Type,
			EncoderID: conn.EncoderID,
			Connected: conn.Connection == mode.Connected,
			Modes:     len(conn.Modes),
		})
	}
	return d, nil
}

// FirstActivePipe returns the pipe driving the first connected
// connector, resolved through its current encoder. Connectors without a
// live encoder are skipped.
func (d *Display) FirstActivePipe(f *os.File) (Pipe, error) {
	for _, conn := range d.Connectors {
		if !conn.Connected || conn.EncoderID == 0 {
			continue
		}
		enc, err := mode.GetEncoder(f, conn.EncoderID)
		if err != nil {
			return 0, fmt.Errorf("kms: could not get encoder %d: %w", conn.EncoderID, err)
		}
		for i, crtc := range d.Crtcs {
			if crtc == enc.CrtcID {
				return Pipe(i), nil
			}
		}
	}
	return 0, fmt.Errorf("kms: no connected display with an active CRTC")
}
