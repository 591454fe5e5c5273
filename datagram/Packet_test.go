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

package datagram

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestPacketEncodeDecodeRoundTrip(t *testing.T) {
	p := &Packet{FrameID: 42, ChunkID: 3, TotalChunks: 9, Payload: []byte("some chunk data")}
	got, err := DecodePacket(p.Encode())

	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}

	if got.FrameID != p.FrameID || got.ChunkID != p.ChunkID || got.TotalChunks != p.TotalChunks {
		t.Fatalf("decoded packet header mismatch: got %+v, want %+v", got, p)
	}

	if !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("decoded payload mismatch")
	}
}

func TestDecodePacketTooShort(t *testing.T) {
	if _, err := DecodePacket([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for undersized datagram")
	}
}

func TestFragmentMatchesSpecScenario(t *testing.T) {
	blob := make([]byte, 5000)
	packets := Fragment(1, blob)

	if len(packets) != 4 {
		t.Fatalf("got %d packets, want 4", len(packets))
	}

	wantSizes := []int{1400, 1400, 1400, 400}

	for i, pkt := range packets {
		if pkt.TotalChunks != 4 {
			t.Fatalf("packet %d total_chunks = %d, want 4", i, pkt.TotalChunks)
		}

		if len(pkt.Payload) != wantSizes[i] {
			t.Fatalf("packet %d payload length = %d, want %d", i, len(pkt.Payload), wantSizes[i])
		}
	}
}

func TestFragmentReassembleAnyOrder(t *testing.T) {
	rnd := rand.New(rand.NewSource(6))
	blob := make([]byte, 5000)
	rnd.Read(blob)
	packets := Fragment(7, blob)

	// Shuffle delivery order.
	rnd.Shuffle(len(packets), func(i, j int) { packets[i], packets[j] = packets[j], packets[i] })

	chunks := make(map[uint16][]byte)
	var total uint16

	for _, pkt := range packets {
		total = pkt.TotalChunks
		chunks[pkt.ChunkID] = pkt.Payload
	}

	reassembled := make([]byte, 0, len(blob))

	for i := uint16(0); i < total; i++ {
		reassembled = append(reassembled, chunks[i]...)
	}

	if !bytes.Equal(reassembled, blob) {
		t.Fatalf("reassembled blob does not match original after permuted delivery")
	}
}

func TestFragmentEmptyBlob(t *testing.T) {
	if packets := Fragment(1, nil); packets != nil {
		t.Fatalf("expected no packets for an empty blob, got %d", len(packets))
	}
}
