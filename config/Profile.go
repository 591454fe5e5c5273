// Copyright 2026 The Quasar Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the operator-authored mission profile: the YAML
// document naming an artifact, an output mode, a peer address, an ROI
// list and the telemetry fields that end up in the archive header. It
// is a convenience layer over container.PackOptions, not part of the
// wire format.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nightwing-systems/quasar/container"
	"github.com/nightwing-systems/quasar/raster"
)

// ROI mirrors raster.ROI with YAML tags for the profile document.
type ROI struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	R int `yaml:"r"`
}

// Telemetry mirrors container.Telemetry with YAML tags.
type Telemetry struct {
	EstX     float32 `yaml:"est_x"`
	EstY     float32 `yaml:"est_y"`
	EstZ     float32 `yaml:"est_z"`
	TargetID uint32  `yaml:"target_id"`
}

// Profile is the top-level mission profile document.
type Profile struct {
	// ArtifactPath is the path to the input file (pack) or the archive
	// (unpack).
	ArtifactPath string `yaml:"artifact_path"`

	// Mode selects the orchestrator dispatch: pack, unpack, transmit or
	// receive.
	Mode string `yaml:"mode"`

	// PeerAddress is the transmit-mode destination, "host:port".
	PeerAddress string `yaml:"peer_address"`

	// ListenPort is the receive-mode UDP port.
	ListenPort int `yaml:"listen_port"`

	// OutputDir is the directory receive mode writes one recovered
	// artifact into per completed frame, each named by the wall-clock
	// time it finished reassembling.
	OutputDir string `yaml:"output_dir"`

	// Raster switches on the wavelet/saliency/quantiser pipeline for
	// pack. Width and Height must then match the artifact's pixel count.
	Raster bool `yaml:"raster"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Scale  float64 `yaml:"scale"`

	ROIs         []ROI `yaml:"rois"`
	LegacyRadius int   `yaml:"legacy_radius"`

	Encrypt bool   `yaml:"encrypt"`
	KeyPath string `yaml:"key_path"`

	Telemetry Telemetry `yaml:"telemetry"`
}

// Load reads and parses a mission profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("config: failed to read mission profile: %w", err)
	}

	var p Profile

	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: failed to parse mission profile: %w", err)
	}

	if p.Scale == 0 {
		p.Scale = 1000
	}

	return &p, nil
}

// PackOptions converts the profile into the options container.Pack
// expects, resolving a pre-shared key from KeyPath if one was named.
func (p *Profile) PackOptions() (container.PackOptions, error) {
	rois := make([]raster.ROI, len(p.ROIs))

	for i, r := range p.ROIs {
		rois[i] = raster.ROI{X: r.X, Y: r.Y, R: r.R}
	}

	opts := container.PackOptions{
		IsRaster:     p.Raster,
		Width:        p.Width,
		Height:       p.Height,
		Scale:        p.Scale,
		ROIs:         rois,
		LegacyRadius: p.LegacyRadius,
		Encrypt:      p.Encrypt,
		Telemetry: container.Telemetry{
			EstX:     p.Telemetry.EstX,
			EstY:     p.Telemetry.EstY,
			EstZ:     p.Telemetry.EstZ,
			TargetID: p.Telemetry.TargetID,
		},
	}

	if p.KeyPath != "" {
		key, err := os.ReadFile(p.KeyPath)

		if err != nil {
			return opts, fmt.Errorf("config: failed to read pre-shared key: %w", err)
		}

		opts.Key = key
	}

	return opts, nil
}
