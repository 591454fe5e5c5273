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

package entropy

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"

	quasar "github.com/nightwing-systems/quasar"
)

// _HISTOGRAM_SIZE is the size, in bytes, of the frequency table that
// precedes every Huffman-coded stream: 256 symbols, 4 bytes each,
// little-endian.
const _HISTOGRAM_SIZE = 1024

// huffmanNode is a node of the Huffman tree. A leaf has symbol >= 0.
type huffmanNode struct {
	weight uint32
	symbol int
	left   *huffmanNode
	right  *huffmanNode
}

func (n *huffmanNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

// nodeHeap is a weight-only min-heap of Huffman tree nodes. Unlike a
// canonical Huffman builder, nodes of equal weight are not given any
// secondary ordering: which one comes out of the heap first on a tie is
// whatever the heap's sift happens to produce, exactly as it would for
// a weight-only priority_queue comparator. Both sides of a round trip
// run the identical heap implementation against the identical histogram,
// so encoder and decoder always agree on the resulting tree.
type nodeHeap []*huffmanNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].weight < h[j].weight }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*huffmanNode)) }

func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// buildTree reconstructs the Huffman tree for a 256-entry frequency table.
// Returns nil if every frequency is zero.
func buildTree(freqs *[256]uint32) *huffmanNode {
	h := &nodeHeap{}

	for s := 0; s < 256; s++ {
		if freqs[s] > 0 {
			heap.Push(h, &huffmanNode{weight: freqs[s], symbol: s})
		}
	}

	if h.Len() == 0 {
		return nil
	}

	if h.Len() == 1 {
		lone := heap.Pop(h).(*huffmanNode)
		return &huffmanNode{weight: lone.weight, symbol: -1, left: lone}
	}

	for h.Len() > 1 {
		left := heap.Pop(h).(*huffmanNode)
		right := heap.Pop(h).(*huffmanNode)
		heap.Push(h, &huffmanNode{weight: left.weight + right.weight, symbol: -1, left: left, right: right})
	}

	return heap.Pop(h).(*huffmanNode)
}

// code is a variable-length Huffman code, stored as a string of '0'/'1'
// characters rather than a fixed-width integer: frequency distributions
// this skewed can legally produce codes deeper than 32 or 64 bits, and a
// static coder with no code-length renormalization step must be able to
// represent them faithfully.
type code string

func generateCodes(root *huffmanNode, prefix code, codes map[byte]code) {
	if root == nil {
		return
	}

	if root.isLeaf() {
		if prefix == "" {
			prefix = "0"
		}

		codes[byte(root.symbol)] = prefix
		return
	}

	generateCodes(root.left, prefix+"0", codes)
	generateCodes(root.right, prefix+"1", codes)
}

// HuffmanEncoder is a static, non-adaptive Huffman encoder. The full
// 256-entry symbol histogram for the block being encoded is written
// ahead of the coded bits so the decoder can rebuild an identical tree;
// there is no chunking and no canonicalization of the codes.
type HuffmanEncoder struct {
	bitstream quasar.OutputBitStream
}

// NewHuffmanEncoder creates a HuffmanEncoder that writes to bs.
func NewHuffmanEncoder(bs quasar.OutputBitStream) (*HuffmanEncoder, error) {
	if bs == nil {
		return nil, errors.New("Huffman codec: invalid null bitstream parameter")
	}

	return &HuffmanEncoder{bitstream: bs}, nil
}

// Write encodes block as a histogram header followed by the Huffman-coded
// bitstream. Returns the number of bytes consumed from block.
func (this *HuffmanEncoder) Write(block []byte) (int, error) {
	if block == nil {
		return 0, errors.New("Huffman codec: invalid null block parameter")
	}

	var freqs [256]uint32

	for _, b := range block {
		freqs[b]++
	}

	var header [_HISTOGRAM_SIZE]byte

	for s := 0; s < 256; s++ {
		binary.LittleEndian.PutUint32(header[s*4:s*4+4], freqs[s])
	}

	this.bitstream.WriteArray(header[:], _HISTOGRAM_SIZE*8)

	if len(block) == 0 {
		return 0, nil
	}

	root := buildTree(&freqs)
	codes := make(map[byte]code, 256)
	generateCodes(root, "", codes)

	for _, b := range block {
		c := codes[b]

		for i := 0; i < len(c); i++ {
			if c[i] == '1' {
				this.bitstream.WriteBit(1)
			} else {
				this.bitstream.WriteBit(0)
			}
		}
	}

	return len(block), nil
}

// Dispose releases resources held by the encoder. A no-op for this
// implementation.
func (this *HuffmanEncoder) Dispose() {
}

// BitStream returns the underlying bitstream.
func (this *HuffmanEncoder) BitStream() quasar.OutputBitStream {
	return this.bitstream
}

// HuffmanDecoder decodes a stream produced by HuffmanEncoder.
type HuffmanDecoder struct {
	bitstream quasar.InputBitStream
}

// NewHuffmanDecoder creates a HuffmanDecoder that reads from bs.
func NewHuffmanDecoder(bs quasar.InputBitStream) (*HuffmanDecoder, error) {
	if bs == nil {
		return nil, errors.New("Huffman codec: invalid null bitstream parameter")
	}

	return &HuffmanDecoder{bitstream: bs}, nil
}

// Read decodes up to len(block) symbols from the bitstream into block.
// Returns the number of bytes actually decoded.
//
// A stream shorter than the 1024-byte histogram header yields an empty
// result rather than an error: there is nothing to recover from a block
// that never carried a usable header. A stream that carries a complete,
// consistent header but runs out of coded bits before every symbol is
// decoded is a soft-recovery case, not a hard failure: decoding stops at
// the last complete symbol and the bytes produced so far are returned,
// mirroring how a corrupted tail of a UDP-delivered frame should degrade
// the recovered artifact rather than take the decoder down.
func (this *HuffmanDecoder) Read(block []byte) (int, error) {
	if block == nil {
		return 0, errors.New("Huffman codec: invalid null block parameter")
	}

	var header [_HISTOGRAM_SIZE]byte

	if !this.readHeader(header[:]) {
		return 0, nil
	}

	var freqs [256]uint32
	total := uint64(0)

	for s := 0; s < 256; s++ {
		freqs[s] = binary.LittleEndian.Uint32(header[s*4 : s*4+4])
		total += uint64(freqs[s])
	}

	if len(block) == 0 {
		return 0, nil
	}

	if total == 0 {
		return 0, fmt.Errorf("Huffman codec: empty histogram, expected %d symbols", len(block))
	}

	if total != uint64(len(block)) {
		return 0, fmt.Errorf("Huffman codec: histogram totals %d symbols, expected %d", total, len(block))
	}

	root := buildTree(&freqs)

	if root == nil {
		return 0, errors.New("Huffman codec: empty tree for non-empty histogram")
	}

	for i := range block {
		curr := root

		for !curr.isLeaf() {
			if more, err := this.bitstream.HasMoreToRead(); err != nil || !more {
				return i, nil
			}

			if this.bitstream.ReadBit() == 0 {
				curr = curr.left
			} else {
				curr = curr.right
			}

			if curr == nil {
				return i, errors.New("Huffman codec: invalid bitstream, fell off the tree")
			}
		}

		block[i] = byte(curr.symbol)
	}

	return len(block), nil
}

// readHeader fills header one bit at a time, checking HasMoreToRead
// before every bit so a stream shorter than the histogram never drives
// the bitstream past its end. Returns false, leaving header's contents
// undefined, if the stream runs out before header is full.
func (this *HuffmanDecoder) readHeader(header []byte) bool {
	for i := range header {
		var b byte

		for bit := 0; bit < 8; bit++ {
			more, err := this.bitstream.HasMoreToRead()

			if err != nil || !more {
				return false
			}

			b = b<<1 | byte(this.bitstream.ReadBit())
		}

		header[i] = b
	}

	return true
}

// BitStream returns the underlying bitstream.
func (this *HuffmanDecoder) BitStream() quasar.InputBitStream {
	return this.bitstream
}

// Dispose releases resources held by the decoder. A no-op for this
// implementation.
func (this *HuffmanDecoder) Dispose() {
}
