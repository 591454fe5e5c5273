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

// Package datagram fragments an archive blob into MTU-safe UDP packets
// on send, and reassembles them, possibly arriving out of order or
// interleaved with other frames, on receive.
package datagram

import (
	"encoding/binary"
	"fmt"
)

// MaxPayload is the largest payload a single packet carries. It keeps
// the packet comfortably inside a typical path MTU once the 10-byte
// packet header and the UDP/IP headers are added.
const MaxPayload = 1400

// HeaderSize is the size, in bytes, of the fixed packet header that
// precedes the payload on the wire.
const HeaderSize = 10

// Packet is one fragment of a frame: its header plus up to MaxPayload
// bytes of the frame's data.
type Packet struct {
	FrameID     uint32
	ChunkID     uint16
	TotalChunks uint16
	Payload     []byte
}

// Encode serialises p to its wire form: little-endian header followed
// by the payload, truncated to the payload's actual length.
func (p *Packet) Encode() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], p.FrameID)
	binary.LittleEndian.PutUint16(buf[4:6], p.ChunkID)
	binary.LittleEndian.PutUint16(buf[6:8], p.TotalChunks)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(p.Payload)))
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

// DecodePacket parses a datagram's raw bytes into a Packet. Datagrams
// shorter than HeaderSize, or whose declared data_size overruns the
// buffer, are dropped silently by returning an error the caller ignores.
func DecodePacket(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("datagram: packet shorter than the %d-byte header", HeaderSize)
	}

	p := &Packet{
		FrameID:     binary.LittleEndian.Uint32(buf[0:4]),
		ChunkID:     binary.LittleEndian.Uint16(buf[4:6]),
		TotalChunks: binary.LittleEndian.Uint16(buf[6:8]),
	}

	dataSize := binary.LittleEndian.Uint16(buf[8:10])

	if HeaderSize+int(dataSize) > len(buf) {
		return nil, fmt.Errorf("datagram: declared data_size %d overruns packet", dataSize)
	}

	p.Payload = append([]byte{}, buf[HeaderSize:HeaderSize+int(dataSize)]...)
	return p, nil
}

// Fragment splits blob into the ordered sequence of packets a
// Transmitter would send for frameID.
func Fragment(frameID uint32, blob []byte) []*Packet {
	if len(blob) == 0 {
		return nil
	}

	totalChunks := uint16((len(blob) + MaxPayload - 1) / MaxPayload)
	packets := make([]*Packet, 0, totalChunks)

	for i := uint16(0); i < totalChunks; i++ {
		offset := int(i) * MaxPayload
		end := offset + MaxPayload

		if end > len(blob) {
			end = len(blob)
		}

		packets = append(packets, &Packet{
			FrameID:     frameID,
			ChunkID:     i,
			TotalChunks: totalChunks,
			Payload:     blob[offset:end],
		})
	}

	return packets
}
