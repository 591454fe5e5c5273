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

// Package quantize implements the fixed-point quantiser that sits
// between the wavelet transform and the symbol coder: every real sample
// is rescaled, rounded and stored as a big-endian signed 32-bit cell.
package quantize

import (
	"encoding/binary"
	"errors"
	"math"
)

const bytesPerCell = 4

// Quantize converts field (length W*H) to 4*W*H bytes: each sample is
// multiplied by scale, rounded to the nearest integer, clamped to the
// signed 32-bit range and written big-endian.
func Quantize(field []float64, scale float64) []byte {
	out := make([]byte, len(field)*bytesPerCell)

	for i, v := range field {
		q := math.Round(v * scale)

		if q > math.MaxInt32 {
			q = math.MaxInt32
		} else if q < math.MinInt32 {
			q = math.MinInt32
		}

		binary.BigEndian.PutUint32(out[i*bytesPerCell:i*bytesPerCell+4], uint32(int32(q)))
	}

	return out
}

// Dequantize is the inverse of Quantize: it reads 4-byte big-endian
// signed cells and divides each by scale. len(data) must be a multiple
// of 4.
func Dequantize(data []byte, scale float64) ([]float64, error) {
	if len(data)%bytesPerCell != 0 {
		return nil, errors.New("quantize: data length must be a multiple of 4")
	}

	if scale == 0 {
		return nil, errors.New("quantize: scale must be non-zero")
	}

	n := len(data) / bytesPerCell
	out := make([]float64, n)

	for i := 0; i < n; i++ {
		q := int32(binary.BigEndian.Uint32(data[i*bytesPerCell : i*bytesPerCell+4]))
		out[i] = float64(q) / scale
	}

	return out, nil
}
