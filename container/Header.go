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

package container

import (
	"encoding/binary"
	"math"

	quasar "github.com/nightwing-systems/quasar"
	"github.com/nightwing-systems/quasar/raster"
)

// HeaderSize is the fixed, unpadded size in bytes of a container header.
const HeaderSize = 99

// MaxROIs is the maximum number of region-of-interest discs a header can
// carry.
const MaxROIs = 8

// FileType values.
const (
	FileTypeOpaque = 0
	FileTypeRaster = 2
)

// Flag bits within CompressionFlags.
const (
	FlagSymbolCoded = 1 << 0
	FlagRaster      = 1 << 1
	FlagCiphered    = 1 << 7
)

var magic = [4]byte{'Q', 'S', 'R', '1'}

// Telemetry is the mission telemetry carried in every header: an
// estimated position and a mission-defined target identifier.
type Telemetry struct {
	EstX     float32
	EstY     float32
	EstZ     float32
	TargetID uint32
}

// Header is the fixed, 99-byte archive header described by the wire
// format: magic, file classification, flags, cipher nonce, quantiser
// scale, raster dimensions, mission telemetry and up to 8 ROI discs.
type Header struct {
	FileType          byte
	OriginalSize      uint64
	CompressionFlags  byte
	Nonce             [12]byte
	Scale             float32
	Width             uint16
	Height            uint16
	Telemetry         Telemetry
	ROIs              []raster.ROI
}

// Encode serialises h into a HeaderSize-byte slice.
func (h *Header) Encode() ([]byte, error) {
	if len(h.ROIs) > MaxROIs {
		return nil, NewError("too many ROIs", quasar.ERR_BAD_ROI)
	}

	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic[:])
	buf[4] = h.FileType
	binary.LittleEndian.PutUint64(buf[5:13], h.OriginalSize)
	buf[13] = h.CompressionFlags
	copy(buf[14:26], h.Nonce[:])
	binary.LittleEndian.PutUint32(buf[26:30], math.Float32bits(h.Scale))
	binary.LittleEndian.PutUint16(buf[30:32], h.Width)
	binary.LittleEndian.PutUint16(buf[32:34], h.Height)
	binary.LittleEndian.PutUint32(buf[34:38], math.Float32bits(h.Telemetry.EstX))
	binary.LittleEndian.PutUint32(buf[38:42], math.Float32bits(h.Telemetry.EstY))
	binary.LittleEndian.PutUint32(buf[42:46], math.Float32bits(h.Telemetry.EstZ))
	binary.LittleEndian.PutUint32(buf[46:50], h.Telemetry.TargetID)
	buf[50] = byte(len(h.ROIs))

	for i, roi := range h.ROIs {
		off := 51 + i*6
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(roi.X))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(roi.Y))
		binary.LittleEndian.PutUint16(buf[off+4:off+6], uint16(roi.R))
	}

	return buf, nil
}

// DecodeHeader parses a HeaderSize-byte slice into a Header. Returns an
// Error with ERR_BAD_MAGIC if the magic does not match, or
// ERR_TRUNCATED_HEADER if buf is shorter than HeaderSize.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, NewError("archive shorter than the fixed header", quasar.ERR_TRUNCATED_HEADER)
	}

	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] || buf[3] != magic[3] {
		return nil, NewError("bad magic, not a QSR1 archive", quasar.ERR_BAD_MAGIC)
	}

	h := &Header{}
	h.FileType = buf[4]
	h.OriginalSize = binary.LittleEndian.Uint64(buf[5:13])
	h.CompressionFlags = buf[13]
	copy(h.Nonce[:], buf[14:26])
	h.Scale = math.Float32frombits(binary.LittleEndian.Uint32(buf[26:30]))
	h.Width = binary.LittleEndian.Uint16(buf[30:32])
	h.Height = binary.LittleEndian.Uint16(buf[32:34])
	h.Telemetry.EstX = math.Float32frombits(binary.LittleEndian.Uint32(buf[34:38]))
	h.Telemetry.EstY = math.Float32frombits(binary.LittleEndian.Uint32(buf[38:42]))
	h.Telemetry.EstZ = math.Float32frombits(binary.LittleEndian.Uint32(buf[42:46]))
	h.Telemetry.TargetID = binary.LittleEndian.Uint32(buf[46:50])

	roiCount := int(buf[50])

	if roiCount > MaxROIs {
		return nil, NewError("roi_count exceeds the 8-slot limit", quasar.ERR_BAD_ROI)
	}

	h.ROIs = make([]raster.ROI, roiCount)

	for i := 0; i < roiCount; i++ {
		off := 51 + i*6
		h.ROIs[i] = raster.ROI{
			X: int(binary.LittleEndian.Uint16(buf[off : off+2])),
			Y: int(binary.LittleEndian.Uint16(buf[off+2 : off+4])),
			R: int(binary.LittleEndian.Uint16(buf[off+4 : off+6])),
		}
	}

	return h, nil
}

// HasFlag reports whether bit is set in the header's compression flags.
func (h *Header) HasFlag(bit byte) bool {
	return h.CompressionFlags&bit != 0
}
