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

package quantize

import (
	"math"
	"math/rand"
	"testing"
)

func TestQuantizeLength(t *testing.T) {
	field := make([]float64, 37)
	out := Quantize(field, 256)

	if len(out) != 37*4 {
		t.Fatalf("Quantize output length = %d, want %d", len(out), 37*4)
	}
}

func TestRoundTripFidelity(t *testing.T) {
	const scale = 256.0
	rnd := rand.New(rand.NewSource(4))
	field := make([]float64, 1000)

	for i := range field {
		field[i] = rnd.Float64()*2000 - 1000
	}

	encoded := Quantize(field, scale)
	decoded, err := Dequantize(encoded, scale)

	if err != nil {
		t.Fatalf("Dequantize failed: %v", err)
	}

	maxErr := 1.0 / (2.0 * scale)

	for i := range field {
		if d := math.Abs(field[i] - decoded[i]); d > maxErr+1e-12 {
			t.Fatalf("sample %d: error %g exceeds bound %g", i, d, maxErr)
		}
	}
}

func TestQuantizeClampsToInt32Range(t *testing.T) {
	out := Quantize([]float64{1e12, -1e12}, 1)

	hi, err := Dequantize(out, 1)

	if err != nil {
		t.Fatalf("Dequantize failed: %v", err)
	}

	if hi[0] != math.MaxInt32 {
		t.Fatalf("expected clamp to MaxInt32, got %v", hi[0])
	}

	if hi[1] != math.MinInt32 {
		t.Fatalf("expected clamp to MinInt32, got %v", hi[1])
	}
}

func TestDequantizeRejectsBadLength(t *testing.T) {
	if _, err := Dequantize([]byte{1, 2, 3}, 256); err == nil {
		t.Fatalf("expected error for non-multiple-of-4 length")
	}
}
