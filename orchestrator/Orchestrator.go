/*
Copyright 2026 The Quasar Authors
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package orchestrator wires the container, cipher and datagram
// packages into the four operator-facing modes: pack to disk, unpack
// from disk, transmit over UDP and receive over UDP.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	quasar "github.com/nightwing-systems/quasar"
	"github.com/nightwing-systems/quasar/config"
	"github.com/nightwing-systems/quasar/container"
	"github.com/nightwing-systems/quasar/datagram"
	"github.com/nightwing-systems/quasar/rasterio"
)

// Orchestrator drives one run of the pipeline end to end. Logger
// defaults to slog.Default() when nil.
type Orchestrator struct {
	Logger    *slog.Logger
	Listeners []quasar.Listener
}

// New creates an Orchestrator, defaulting Logger to slog.Default().
func New(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{Logger: logger}
}

// AddListener registers l on every pipeline and link stage the
// orchestrator drives.
func (o *Orchestrator) AddListener(l quasar.Listener) {
	o.Listeners = append(o.Listeners, l)
}

// PackToDisk reads artifactPath, packs it per opts and writes the
// resulting archive to archivePath. If opts requests encryption and
// carries no pre-shared key, the generated key is returned so the
// caller can hand it to the operator out of band.
func (o *Orchestrator) PackToDisk(artifactPath, archivePath string, opts container.PackOptions) ([]byte, error) {
	artifact, err := readArtifact(artifactPath, &opts)

	if err != nil {
		return nil, err
	}

	opts.Listeners = o.Listeners
	o.Logger.Info("packing artifact", "input", artifactPath, "output", archivePath, "raster", opts.IsRaster, "encrypt", opts.Encrypt)

	archive, key, err := container.Pack(artifact, opts)

	if err != nil {
		return nil, fmt.Errorf("orchestrator: pack failed: %w", err)
	}

	if err := os.WriteFile(archivePath, archive, 0644); err != nil {
		return nil, fmt.Errorf("orchestrator: failed to write archive %q: %w", archivePath, err)
	}

	o.Logger.Info("pack complete", "bytes", len(archive))
	return key, nil
}

// UnpackFromDisk reads an archive from archivePath, unpacks it and
// writes the recovered artifact to outputPath. key is required iff the
// archive was encrypted. When the archive carries raster dimensions the
// output is written as a P5 PGM; otherwise it is written raw.
func (o *Orchestrator) UnpackFromDisk(archivePath, outputPath string, key []byte) error {
	archive, err := os.ReadFile(archivePath)

	if err != nil {
		return fmt.Errorf("orchestrator: failed to read archive %q: %w", archivePath, err)
	}

	return o.unpackAndWrite(archive, outputPath, key)
}

func (o *Orchestrator) unpackAndWrite(archive []byte, outputPath string, key []byte) error {
	o.Logger.Info("unpacking archive", "output", outputPath, "bytes", len(archive))

	h, err := container.DecodeHeader(archive)

	if err != nil {
		return fmt.Errorf("orchestrator: unpack failed: %w", err)
	}

	artifact, err := container.Unpack(archive, key, o.Listeners)

	if err != nil {
		return fmt.Errorf("orchestrator: unpack failed: %w", err)
	}

	if h.HasFlag(container.FlagRaster) {
		r := &rasterio.Raster{Width: int(h.Width), Height: int(h.Height), Maxval: 255, Pixels: artifact}

		if err := rasterio.WriteFile(outputPath, r); err != nil {
			return fmt.Errorf("orchestrator: failed to write raster output: %w", err)
		}
	} else if err := os.WriteFile(outputPath, artifact, 0644); err != nil {
		return fmt.Errorf("orchestrator: failed to write output %q: %w", outputPath, err)
	}

	o.Logger.Info("unpack complete", "bytes", len(artifact))
	return nil
}

// Transmit packs artifactPath per opts and sends the resulting archive
// as one fragmented frame to peerAddr.
func (o *Orchestrator) Transmit(artifactPath, peerAddr string, opts container.PackOptions) ([]byte, error) {
	artifact, err := readArtifact(artifactPath, &opts)

	if err != nil {
		return nil, err
	}

	opts.Listeners = o.Listeners
	archive, key, err := container.Pack(artifact, opts)

	if err != nil {
		return nil, fmt.Errorf("orchestrator: pack failed: %w", err)
	}

	tx, err := datagram.NewTransmitter(peerAddr)

	if err != nil {
		return nil, fmt.Errorf("orchestrator: failed to start transmitter: %w", err)
	}

	defer tx.Close()

	for _, l := range o.Listeners {
		tx.AddListener(l)
	}

	o.Logger.Info("transmitting archive", "peer", peerAddr, "bytes", len(archive))
	frameID, err := tx.SendFrame(archive)

	if err != nil {
		return nil, fmt.Errorf("orchestrator: transmit failed: %w", err)
	}

	o.Logger.Info("transmit complete", "frame_id", frameID)
	return key, nil
}

// Receive binds port and runs an indefinite loop, delivering one
// recovered artifact per completed frame into outputDir, until ctx is
// cancelled or the socket errors. Each artifact is named by the
// wall-clock time its frame finished reassembling, with a ".pgm"
// extension for raster payloads and ".bin" otherwise. A frame that
// fails to decode or unpack is logged and skipped; it does not end the
// loop. staleAfter <= 0 disables the reassembly-buffer eviction sweep.
func (o *Orchestrator) Receive(ctx context.Context, port int, outputDir string, key []byte, staleAfter time.Duration) error {
	rx, err := datagram.NewReceiver(port, staleAfter)

	if err != nil {
		return fmt.Errorf("orchestrator: failed to start receiver: %w", err)
	}

	defer rx.Close()

	for _, l := range o.Listeners {
		rx.AddListener(l)
	}

	go func() {
		<-ctx.Done()
		rx.Close()
	}()

	o.Logger.Info("listening for frames", "port", port, "output_dir", outputDir)

	for {
		archive, err := rx.Listen()

		if err != nil {
			if ctx.Err() != nil {
				o.Logger.Info("receive stopped", "reason", ctx.Err())
				return nil
			}

			return fmt.Errorf("orchestrator: receive failed: %w", err)
		}

		outputPath, err := namedOutputPath(outputDir, archive)

		if err != nil {
			o.Logger.Warn("dropping frame with unreadable header", "error", err)
			continue
		}

		if err := o.unpackAndWrite(archive, outputPath, key); err != nil {
			o.Logger.Warn("failed to unpack received frame", "error", err)
			continue
		}
	}
}

// namedOutputPath names a received frame's artifact file by the
// current wall-clock time, under dir, with an extension chosen from
// the archive's header.
func namedOutputPath(dir string, archive []byte) (string, error) {
	h, err := container.DecodeHeader(archive)

	if err != nil {
		return "", fmt.Errorf("orchestrator: failed to decode received frame header: %w", err)
	}

	ext := ".bin"

	if h.HasFlag(container.FlagRaster) {
		ext = ".pgm"
	}

	name := time.Now().UTC().Format("20060102T150405.000000000Z") + ext
	return filepath.Join(dir, name), nil
}

// RunProfile dispatches a config.Profile to the matching mode. ctx
// governs cancellation of the receive mode's indefinite loop; it is
// ignored by the other modes.
func (o *Orchestrator) RunProfile(ctx context.Context, p *config.Profile) ([]byte, error) {
	opts, err := p.PackOptions()

	if err != nil {
		return nil, err
	}

	switch p.Mode {
	case "pack":
		return o.PackToDisk(p.ArtifactPath, p.ArtifactPath+".qsr", opts)

	case "unpack":
		return nil, o.UnpackFromDisk(p.ArtifactPath, p.ArtifactPath+".out", opts.Key)

	case "transmit":
		return o.Transmit(p.ArtifactPath, p.PeerAddress, opts)

	case "receive":
		return nil, o.Receive(ctx, p.ListenPort, p.OutputDir, opts.Key, datagram.DefaultStaleTimeout)

	default:
		return nil, fmt.Errorf("orchestrator: unknown mode %q", p.Mode)
	}
}

// readArtifact loads the input artifact from disk, decoding it as a PGM
// raster and filling in opts.Width/opts.Height from the file when the
// raster pipeline is requested but no dimensions were supplied.
func readArtifact(path string, opts *container.PackOptions) ([]byte, error) {
	if !opts.IsRaster {
		data, err := os.ReadFile(path)

		if err != nil {
			return nil, fmt.Errorf("orchestrator: failed to read artifact %q: %w", path, err)
		}

		return data, nil
	}

	r, err := rasterio.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("orchestrator: failed to read raster artifact %q: %w", path, err)
	}

	if opts.Width == 0 && opts.Height == 0 {
		opts.Width = r.Width
		opts.Height = r.Height
	}

	return r.Pixels, nil
}
