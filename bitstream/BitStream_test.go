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

package bitstream

import (
	"math/rand"
	"testing"

	"github.com/nightwing-systems/quasar/internal"
)

func TestWriteBitsReadBitsAligned(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	for count := uint(1); count <= 32; count++ {
		bs := internal.NewBufferStream()
		obs, err := NewBitWriter(bs, 16384)

		if err != nil {
			t.Fatalf("failed to create writer: %v", err)
		}

		obs.WriteBits(0x0123456789ABCDEF, count)

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, err := NewBitReader(bs, 16384)

		if err != nil {
			t.Fatalf("failed to create reader: %v", err)
		}

		ibs.ReadBits(count)

		if ibs.Read() != uint64(count) {
			t.Fatalf("count %d: read %d bits, want %d", count, ibs.Read(), count)
		}

		ibs.Close()
	}

	values := make([]int, 100)

	for _, width := range []int{8, 16, 32} {
		bs := internal.NewBufferStream()
		obs, _ := NewBitWriter(bs, 16384)

		for i := range values {
			values[i] = rnd.Intn(1 << 30)
			obs.WriteBits(uint64(values[i]), uint(width))
		}

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, _ := NewBitReader(bs, 16384)

		for i, want := range values {
			mask := (1 << width) - 1

			if got := int(ibs.ReadBits(uint(width))); got != want&mask {
				t.Fatalf("width %d, index %d: got %d, want %d", width, i, got, want&mask)
			}
		}

		ibs.Close()
	}
}

func TestWriteBitsReadBitsMisaligned(t *testing.T) {
	for count := uint(1); count <= 32; count++ {
		bs := internal.NewBufferStream()
		obs, _ := NewBitWriter(bs, 16384)
		obs.WriteBit(1)
		obs.WriteBits(0x0123456789ABCDEF, count)

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, _ := NewBitReader(bs, 16384)
		ibs.ReadBit()
		ibs.ReadBits(count)

		if want := uint64(count + 1); ibs.Read() != want {
			t.Fatalf("count %d: read %d bits, want %d", count, ibs.Read(), want)
		}

		ibs.Close()
	}

	rnd := rand.New(rand.NewSource(2))
	values := make([]int, 100)

	for test := 1; test <= 10; test++ {
		bs := internal.NewBufferStream()
		obs, _ := NewBitWriter(bs, 16384)

		for i := range values {
			width := 1 + uint(i&63)
			values[i] = rnd.Intn(1<<30) & int(lowBitMasks[min(width, uint(30))])
			obs.WriteBits(uint64(values[i]), width)
		}

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, _ := NewBitReader(bs, 16384)

		for i, want := range values {
			width := 1 + uint(i&63)

			if got := int(ibs.ReadBits(width)); got != want {
				t.Fatalf("test %d, index %d: got %d, want %d", test, i, got, want)
			}
		}

		ibs.Close()
	}
}

func TestWriteArrayReadArrayAligned(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	input := make([]byte, 100)
	output := make([]byte, 100)

	for test := 1; test <= 10; test++ {
		rnd.Read(input)
		bs := internal.NewBufferStream()
		obs, _ := NewBitWriter(bs, 16384)
		count := uint(8 + test*21)
		obs.WriteArray(input, count)

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, _ := NewBitReader(bs, 16384)
		r := ibs.ReadArray(output, count)

		if r != count {
			t.Fatalf("test %d: read %d bits, want %d", test, r, count)
		}

		for i := 0; i < int(r>>3); i++ {
			if output[i] != input[i] {
				t.Fatalf("test %d, byte %d: got %#x, want %#x", test, i, output[i], input[i])
			}
		}

		ibs.Close()
	}
}

func TestWriteArrayReadArrayMisaligned(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	input := make([]byte, 100)
	output := make([]byte, 100)

	for test := 1; test <= 10; test++ {
		rnd.Read(input)
		bs := internal.NewBufferStream()
		obs, _ := NewBitWriter(bs, 16384)
		count := uint(8 + test*21)
		obs.WriteBit(0)
		obs.WriteArray(input[1:], count)

		if err := obs.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		ibs, _ := NewBitReader(bs, 16384)
		ibs.ReadBit()
		r := ibs.ReadArray(output[1:], count)

		if r != count {
			t.Fatalf("test %d: read %d bits, want %d", test, r, count)
		}

		for i := 1; i < 1+int(r>>3); i++ {
			if output[i] != input[i] {
				t.Fatalf("test %d, byte %d: got %#x, want %#x", test, i, output[i], input[i])
			}
		}

		ibs.Close()
	}
}

func TestWriteAfterCloseProvidesError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected WriteBit on a closed writer to panic")
		}
	}()

	bs := internal.NewBufferStream()
	obs, _ := NewBitWriter(bs, 16384)

	if err := obs.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	obs.WriteBit(1)
}

func TestReadAfterCloseProvidesError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected ReadBit on a closed reader to panic")
		}
	}()

	bs := internal.NewBufferStream()
	obs, _ := NewBitWriter(bs, 16384)
	obs.WriteBits(1, 8)
	obs.Close()

	ibs, _ := NewBitReader(bs, 16384)
	ibs.ReadBits(8)
	ibs.Close()
	ibs.ReadBit()
}
