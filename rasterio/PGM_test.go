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

package rasterio

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	pixels := make([]byte, 32*24)
	rnd.Read(pixels)

	r := &Raster{Width: 32, Height: 24, Maxval: 255, Pixels: pixels}
	var buf bytes.Buffer

	if err := Encode(&buf, r); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(&buf)

	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.Width != 32 || got.Height != 24 || got.Maxval != 255 {
		t.Fatalf("decoded dimensions/maxval mismatch: %+v", got)
	}

	if !bytes.Equal(got.Pixels, pixels) {
		t.Fatalf("decoded pixels do not match the original")
	}
}

func TestDecodeSkipsCommentLine(t *testing.T) {
	raw := []byte("P5\n# a comment\n4 2\n255\n")
	raw = append(raw, []byte{1, 2, 3, 4, 5, 6, 7, 8}...)

	got, err := Decode(bytes.NewReader(raw))

	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.Width != 4 || got.Height != 2 {
		t.Fatalf("dimensions mismatch: %+v", got)
	}

	if !bytes.Equal(got.Pixels, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("pixel data mismatch: %v", got.Pixels)
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("P6\n1 1\n255\n\x00"))); err == nil {
		t.Fatalf("expected error for non-P5 magic")
	}
}

func TestDecodeShortPixelData(t *testing.T) {
	raw := []byte("P5\n4 4\n255\n\x01\x02")

	if _, err := Decode(bytes.NewReader(raw)); err == nil {
		t.Fatalf("expected error for truncated pixel data")
	}
}

func TestEncodeDefaultsMaxval(t *testing.T) {
	r := &Raster{Width: 2, Height: 1, Pixels: []byte{10, 20}}
	var buf bytes.Buffer

	if err := Encode(&buf, r); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("255")) {
		t.Fatalf("expected default maxval 255 in header, got %q", buf.String())
	}
}
