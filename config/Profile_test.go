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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.yaml")

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write temp profile: %v", err)
	}

	return path
}

func TestLoadAppliesDefaultScale(t *testing.T) {
	path := writeTemp(t, "artifact_path: /tmp/frame.pgm\nmode: pack\n")
	p, err := Load(path)

	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.Scale != 1000 {
		t.Fatalf("default scale = %v, want 1000", p.Scale)
	}

	if p.ArtifactPath != "/tmp/frame.pgm" || p.Mode != "pack" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestLoadFullProfile(t *testing.T) {
	yaml := `
artifact_path: /data/frame.pgm
mode: transmit
peer_address: 10.0.0.2:9000
raster: true
width: 64
height: 48
scale: 500
rois:
  - x: 10
    y: 10
    r: 5
  - x: 40
    y: 20
    r: 8
encrypt: true
telemetry:
  est_x: 1.5
  est_y: -2.25
  target_id: 7
`
	path := writeTemp(t, yaml)
	p, err := Load(path)

	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(p.ROIs) != 2 || p.ROIs[1].R != 8 {
		t.Fatalf("unexpected ROIs: %+v", p.ROIs)
	}

	if p.Telemetry.TargetID != 7 || p.Telemetry.EstY != -2.25 {
		t.Fatalf("unexpected telemetry: %+v", p.Telemetry)
	}

	opts, err := p.PackOptions()

	if err != nil {
		t.Fatalf("PackOptions failed: %v", err)
	}

	if !opts.IsRaster || opts.Width != 64 || opts.Height != 48 {
		t.Fatalf("unexpected pack options: %+v", opts)
	}

	if len(opts.ROIs) != 2 || opts.ROIs[0].X != 10 {
		t.Fatalf("pack options ROIs not carried through: %+v", opts.ROIs)
	}

	if opts.Telemetry.TargetID != 7 {
		t.Fatalf("pack options telemetry not carried through: %+v", opts.Telemetry)
	}
}

func TestLoadReceiveProfile(t *testing.T) {
	yaml := "mode: receive\nlisten_port: 9000\noutput_dir: /data/recovered\n"
	path := writeTemp(t, yaml)
	p, err := Load(path)

	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.ListenPort != 9000 || p.OutputDir != "/data/recovered" {
		t.Fatalf("unexpected receive profile: %+v", p)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/mission.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadPreSharedKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "mission.key")

	if err := os.WriteFile(keyPath, make([]byte, 32), 0600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}

	yaml := "artifact_path: /tmp/a\nmode: pack\nencrypt: true\nkey_path: " + keyPath + "\n"
	path := writeTemp(t, yaml)
	p, err := Load(path)

	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts, err := p.PackOptions()

	if err != nil {
		t.Fatalf("PackOptions failed: %v", err)
	}

	if len(opts.Key) != 32 {
		t.Fatalf("key length = %d, want 32", len(opts.Key))
	}
}

func TestLoadUnreadablePreSharedKey(t *testing.T) {
	yaml := "artifact_path: /tmp/a\nmode: pack\nencrypt: true\nkey_path: /nonexistent/mission.key\n"
	path := writeTemp(t, yaml)
	p, err := Load(path)

	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := p.PackOptions(); err == nil {
		t.Fatalf("expected error for unreadable key path")
	}
}
