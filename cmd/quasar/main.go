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

// quasar is the operator-facing CLI: pack an artifact to an archive,
// unpack an archive back to an artifact, or transmit/receive an
// archive as a fragmented UDP frame.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nightwing-systems/quasar/config"
	"github.com/nightwing-systems/quasar/container"
	"github.com/nightwing-systems/quasar/datagram"
	"github.com/nightwing-systems/quasar/orchestrator"
	"github.com/nightwing-systems/quasar/raster"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "quasar: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var (
		profilePath  string
		mode         string
		input        string
		output       string
		peer         string
		port         int
		isRaster     bool
		width        int
		height       int
		scale        float64
		roiSpec      string
		legacyRadius int
		encrypt      bool
		keyPath      string
		genKeyPath   string
		staleAfter   time.Duration
		verbosity    int
	)

	flagSet := pflag.NewFlagSet("quasar", pflag.ContinueOnError)
	flagSet.StringVar(&profilePath, "profile", "", "path to a YAML mission profile; overrides the flags below")
	flagSet.StringVar(&mode, "mode", "", "pack | unpack | transmit | receive")
	flagSet.StringVarP(&input, "input", "i", "", "input artifact or archive path")
	flagSet.StringVarP(&output, "output", "o", "", "output archive or artifact path; in receive mode, the directory to deliver recovered artifacts into")
	flagSet.StringVar(&peer, "peer", "", "transmit destination, host:port")
	flagSet.IntVar(&port, "port", 0, "receive listen port")
	flagSet.BoolVar(&isRaster, "raster", false, "run the wavelet/saliency/quantiser raster pipeline")
	flagSet.IntVar(&width, "width", 0, "raster width in pixels")
	flagSet.IntVar(&height, "height", 0, "raster height in pixels")
	flagSet.Float64Var(&scale, "scale", 1000, "fixed-point quantiser scale")
	flagSet.StringVar(&roiSpec, "rois", "", "semicolon-separated x,y,r saliency discs")
	flagSet.IntVar(&legacyRadius, "legacy-radius", 0, "legacy single-radius coefficient mask, ignored if --rois is set")
	flagSet.BoolVar(&encrypt, "encrypt", false, "apply the ChaCha20 keystream to the archive payload")
	flagSet.StringVar(&keyPath, "key", "", "path to a pre-shared key; omit to have pack generate one")
	flagSet.StringVar(&genKeyPath, "write-key", "", "path to write a freshly generated key to")
	flagSet.DurationVar(&staleAfter, "stale-after", datagram.DefaultStaleTimeout, "receive reassembly eviction threshold, <=0 disables it")
	flagSet.IntVarP(&verbosity, "verbose", "v", 1, "0: silent, 1: stage summary, 2: every event")

	if err := flagSet.Parse(argv); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))
	o := orchestrator.New(logger)

	timer, err := newStageTimerOrNil(uint(verbosity))

	if err != nil {
		return err
	}

	if timer != nil {
		o.AddListener(timer)
	}

	if profilePath != "" {
		profile, err := config.Load(profilePath)

		if err != nil {
			return err
		}

		key, err := o.RunProfile(ctx, profile)

		if err != nil {
			return err
		}

		return maybeWriteKey(genKeyPath, key)
	}

	opts := container.PackOptions{
		IsRaster:     isRaster,
		Width:        width,
		Height:       height,
		Scale:        scale,
		LegacyRadius: legacyRadius,
		Encrypt:      encrypt,
	}

	if roiSpec != "" {
		rois, err := parseROIs(roiSpec)

		if err != nil {
			return err
		}

		opts.ROIs = rois
	}

	if keyPath != "" {
		key, err := os.ReadFile(keyPath)

		if err != nil {
			return fmt.Errorf("failed to read key file %q: %w", keyPath, err)
		}

		opts.Key = key
	}

	switch mode {
	case "pack":
		key, err := o.PackToDisk(input, output, opts)

		if err != nil {
			return err
		}

		return maybeWriteKey(genKeyPath, key)

	case "unpack":
		return o.UnpackFromDisk(input, output, opts.Key)

	case "transmit":
		key, err := o.Transmit(input, peer, opts)

		if err != nil {
			return err
		}

		return maybeWriteKey(genKeyPath, key)

	case "receive":
		return o.Receive(ctx, port, output, opts.Key, staleAfter)

	default:
		return fmt.Errorf("missing or unknown --mode %q; want pack, unpack, transmit or receive", mode)
	}
}

func maybeWriteKey(path string, key []byte) error {
	if path == "" || len(key) == 0 {
		return nil
	}

	if err := os.WriteFile(path, key, 0600); err != nil {
		return fmt.Errorf("failed to write generated key to %q: %w", path, err)
	}

	return nil
}

// parseROIs parses a "x,y,r;x,y,r" saliency disc list.
func parseROIs(spec string) ([]raster.ROI, error) {
	parts := strings.Split(spec, ";")
	rois := make([]raster.ROI, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)

		if part == "" {
			continue
		}

		fields := strings.Split(part, ",")

		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed ROI %q, want x,y,r", part)
		}

		x, err := strconv.Atoi(strings.TrimSpace(fields[0]))

		if err != nil {
			return nil, fmt.Errorf("malformed ROI %q: %w", part, err)
		}

		y, err := strconv.Atoi(strings.TrimSpace(fields[1]))

		if err != nil {
			return nil, fmt.Errorf("malformed ROI %q: %w", part, err)
		}

		r, err := strconv.Atoi(strings.TrimSpace(fields[2]))

		if err != nil {
			return nil, fmt.Errorf("malformed ROI %q: %w", part, err)
		}

		rois = append(rois, raster.ROI{X: x, Y: y, R: r})
	}

	return rois, nil
}

func newStageTimerOrNil(verbosity uint) (*StageTimer, error) {
	if verbosity == 0 {
		return nil, nil
	}

	return NewStageTimer(verbosity, os.Stdout)
}
