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

// Package raster implements the separable 2-D Haar wavelet transform and
// the saliency masking applied to a raster before or after it.
package raster

import (
	"errors"
	"fmt"
)

// Plane is a W x H grid of real samples, stored row-major.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// NewPlane allocates a zeroed plane of the given dimensions.
func NewPlane(width, height int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("raster: invalid dimensions %dx%d", width, height)
	}

	return &Plane{Width: width, Height: height, Data: make([]float64, width*height)}, nil
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Data[y*p.Width+x]
}

// Set writes the sample at (x, y).
func (p *Plane) Set(x, y int, v float64) {
	p.Data[y*p.Width+x] = v
}

// row copies row y into dst.
func (p *Plane) row(y int, dst []float64) {
	copy(dst, p.Data[y*p.Width:(y+1)*p.Width])
}

// setRow writes src back into row y.
func (p *Plane) setRow(y int, src []float64) {
	copy(p.Data[y*p.Width:(y+1)*p.Width], src)
}

// col copies column x into dst.
func (p *Plane) col(x int, dst []float64) {
	for y := 0; y < p.Height; y++ {
		dst[y] = p.Data[y*p.Width+x]
	}
}

// setCol writes src back into column x.
func (p *Plane) setCol(x int, src []float64) {
	for y := 0; y < p.Height; y++ {
		p.Data[y*p.Width+x] = src[y]
	}
}

var errOddLine = errors.New("raster: line length must be even and at least 2")

// Forward1D applies the lifting-scheme Haar transform to line in place:
// the first half becomes pairwise averages, the second half pairwise
// differences.
func Forward1D(line []float64) error {
	size := len(line)

	if size < 2 || size%2 != 0 {
		return errOddLine
	}

	h := size / 2
	temp := make([]float64, size)

	for i := 0; i < h; i++ {
		a := line[2*i]
		b := line[2*i+1]
		temp[i] = (a + b) / 2.0
		temp[h+i] = a - b
	}

	copy(line, temp)
	return nil
}

// Inverse1D reverses Forward1D in place.
func Inverse1D(line []float64) error {
	size := len(line)

	if size < 2 || size%2 != 0 {
		return errOddLine
	}

	h := size / 2
	temp := make([]float64, size)

	for i := 0; i < h; i++ {
		avg := line[i]
		detail := line[h+i]
		temp[2*i] = avg + detail/2.0
		temp[2*i+1] = avg - detail/2.0
	}

	copy(line, temp)
	return nil
}

// Forward2D applies the single-level separable Haar transform to the
// plane: every row first, then every column.
func Forward2D(p *Plane) error {
	row := make([]float64, p.Width)

	for y := 0; y < p.Height; y++ {
		p.row(y, row)

		if err := Forward1D(row); err != nil {
			return err
		}

		p.setRow(y, row)
	}

	col := make([]float64, p.Height)

	for x := 0; x < p.Width; x++ {
		p.col(x, col)

		if err := Forward1D(col); err != nil {
			return err
		}

		p.setCol(x, col)
	}

	return nil
}

// Inverse2D reverses Forward2D: columns first, then rows.
func Inverse2D(p *Plane) error {
	col := make([]float64, p.Height)

	for x := 0; x < p.Width; x++ {
		p.col(x, col)

		if err := Inverse1D(col); err != nil {
			return err
		}

		p.setCol(x, col)
	}

	row := make([]float64, p.Width)

	for y := 0; y < p.Height; y++ {
		p.row(y, row)

		if err := Inverse1D(row); err != nil {
			return err
		}

		p.setRow(y, row)
	}

	return nil
}
