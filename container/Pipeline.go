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
	"time"

	quasar "github.com/nightwing-systems/quasar"
	"github.com/nightwing-systems/quasar/bitstream"
	"github.com/nightwing-systems/quasar/cipher"
	"github.com/nightwing-systems/quasar/entropy"
	"github.com/nightwing-systems/quasar/internal"
	"github.com/nightwing-systems/quasar/quantize"
	"github.com/nightwing-systems/quasar/raster"
)

// PackOptions selects which pipeline stages Pack runs and with what
// parameters.
type PackOptions struct {
	// IsRaster selects the raster pipeline (saliency + wavelet +
	// quantiser) over the opaque-bytes passthrough.
	IsRaster bool
	Width    int
	Height   int
	Scale    float64

	// ROIs, when non-empty, selects the spatial-domain ROI saliency
	// mode. LegacyRadius, when > 0 and ROIs is empty, selects the
	// coefficient-domain single-radius legacy mode.
	ROIs         []raster.ROI
	LegacyRadius int

	Encrypt bool
	// Key is the pre-shared key to encrypt with. If Encrypt is true
	// and Key is nil, a fresh key is generated and returned by Pack.
	Key []byte

	Telemetry Telemetry

	Listeners []quasar.Listener
}

func notifyListeners(listeners []quasar.Listener, evt *quasar.Event) {
	if evt == nil {
		return
	}

	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}

// Pack composes artifact into an archive blob per opts. Returns the
// archive bytes and, when a key was generated rather than supplied, the
// generated key (callers must hand this to the operator out of band; it
// is never written into the archive).
func Pack(artifact []byte, opts PackOptions) ([]byte, []byte, error) {
	notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_PACK_START, -1, "", time.Time{}))

	h := &Header{Telemetry: opts.Telemetry, ROIs: opts.ROIs}
	var payload []byte

	if opts.IsRaster {
		if opts.Width <= 0 || opts.Height <= 0 {
			return nil, nil, NewError("raster pipeline requires positive width and height", quasar.ERR_INVALID_PARAM)
		}

		if len(artifact) != opts.Width*opts.Height {
			return nil, nil, NewError("artifact length does not match width*height", quasar.ERR_INVALID_PARAM)
		}

		plane, err := raster.NewPlane(opts.Width, opts.Height)

		if err != nil {
			return nil, nil, err
		}

		for i, b := range artifact {
			plane.Data[i] = float64(b)
		}

		if len(opts.ROIs) > 0 {
			raster.ApplyROIMask(plane, opts.ROIs)
		}

		notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_WAVELET, -1, "", time.Time{}))

		if err := raster.Forward2D(plane); err != nil {
			return nil, nil, err
		}

		notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_AFTER_WAVELET, -1, "", time.Time{}))

		if len(opts.ROIs) == 0 && opts.LegacyRadius > 0 {
			raster.ApplyLegacyRadiusMask(plane, opts.LegacyRadius)
		}

		payload = quantize.Quantize(plane.Data, opts.Scale)
		h.FileType = FileTypeRaster
		h.OriginalSize = uint64(opts.Width) * uint64(opts.Height)
		h.Scale = float32(opts.Scale)
		h.Width = uint16(opts.Width)
		h.Height = uint16(opts.Height)
		h.CompressionFlags |= FlagRaster
	} else {
		payload = artifact
		h.FileType = FileTypeOpaque
		h.OriginalSize = uint64(len(artifact))
	}

	notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_ENTROPY, -1, "", time.Time{}))

	encoded, err := huffmanEncode(payload)

	if err != nil {
		return nil, nil, err
	}

	notifyListeners(opts.Listeners, quasar.NewEvent(quasar.EVT_AFTER_ENTROPY, -1, int64(len(encoded)), 0, quasar.EVT_HASH_NONE, time.Time{}))

	h.CompressionFlags |= FlagSymbolCoded

	var generatedKey []byte

	if opts.Encrypt {
		key := opts.Key

		if key == nil {
			key, err = cipher.GenerateKey()

			if err != nil {
				return nil, nil, err
			}

			generatedKey = key
		}

		nonce, err := cipher.GenerateNonce()

		if err != nil {
			return nil, nil, err
		}

		notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_CIPHER, -1, "", time.Time{}))

		if err := cipher.Process(encoded, key, nonce, 1); err != nil {
			return nil, nil, err
		}

		notifyListeners(opts.Listeners, quasar.NewEventFromString(quasar.EVT_AFTER_CIPHER, -1, "", time.Time{}))

		copy(h.Nonce[:], nonce)
		h.CompressionFlags |= FlagCiphered
	}

	headerBytes, err := h.Encode()

	if err != nil {
		return nil, nil, err
	}

	archive := append(headerBytes, encoded...)
	notifyListeners(opts.Listeners, quasar.NewEvent(quasar.EVT_PACK_END, -1, int64(len(archive)), 0, quasar.EVT_HASH_NONE, time.Time{}))
	return archive, generatedKey, nil
}

// Unpack decomposes an archive blob produced by Pack back into the
// original artifact bytes. key is required iff the archive was encrypted.
func Unpack(archive []byte, key []byte, listeners []quasar.Listener) ([]byte, error) {
	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_UNPACK_START, -1, "", time.Time{}))

	h, err := DecodeHeader(archive)

	if err != nil {
		return nil, err
	}

	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_AFTER_HEADER, -1, "", time.Time{}))

	payload := append([]byte{}, archive[HeaderSize:]...)

	if h.HasFlag(FlagCiphered) {
		if len(key) != cipher.KeySize {
			return nil, NewError("archive is encrypted but no valid key was supplied", quasar.ERR_WRONG_KEY_SHAPE)
		}

		notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_CIPHER, -1, "", time.Time{}))

		if err := cipher.Process(payload, key, h.Nonce[:], 1); err != nil {
			return nil, err
		}

		notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_AFTER_CIPHER, -1, "", time.Time{}))
	}

	decodeLen := h.OriginalSize

	if h.HasFlag(FlagRaster) {
		decodeLen = uint64(h.Width) * uint64(h.Height) * 4
	}

	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_ENTROPY, -1, "", time.Time{}))

	decoded, err := huffmanDecode(payload, int(decodeLen))

	if err != nil {
		return nil, err
	}

	notifyListeners(listeners, quasar.NewEvent(quasar.EVT_AFTER_ENTROPY, -1, int64(len(decoded)), 0, quasar.EVT_HASH_NONE, time.Time{}))

	if !h.HasFlag(FlagRaster) {
		notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_UNPACK_END, -1, "", time.Time{}))
		return decoded, nil
	}

	field, err := quantize.Dequantize(decoded, float64(h.Scale))

	if err != nil {
		return nil, err
	}

	plane, err := raster.NewPlane(int(h.Width), int(h.Height))

	if err != nil {
		return nil, err
	}

	copy(plane.Data, field)

	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_BEFORE_WAVELET, -1, "", time.Time{}))

	if err := raster.Inverse2D(plane); err != nil {
		return nil, err
	}

	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_AFTER_WAVELET, -1, "", time.Time{}))

	out := make([]byte, len(plane.Data))

	for i, v := range plane.Data {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}

		out[i] = byte(v + 0.5)
	}

	notifyListeners(listeners, quasar.NewEventFromString(quasar.EVT_UNPACK_END, -1, "", time.Time{}))
	return out, nil
}

// huffmanEncode runs the symbol coder over block and returns the encoded
// bytes, driving it through the same bitstream machinery the rest of the
// repository uses for bit-level I/O.
func huffmanEncode(block []byte) ([]byte, error) {
	bs := internal.NewBufferStream()
	obs, err := bitstream.NewBitWriter(bs, 65536)

	if err != nil {
		return nil, err
	}

	enc, err := entropy.NewHuffmanEncoder(obs)

	if err != nil {
		return nil, err
	}

	if _, err := enc.Write(block); err != nil {
		return nil, err
	}

	enc.Dispose()

	if err := obs.Close(); err != nil {
		return nil, err
	}

	return bs.Bytes(), nil
}

// huffmanDecode reverses huffmanEncode, decoding up to n symbols. A
// truncated or too-short encoded payload is a soft-recovery case: the
// returned slice holds whatever HuffmanDecoder.Read managed to produce,
// which may be shorter than n, rather than an error.
func huffmanDecode(encoded []byte, n int) ([]byte, error) {
	bs := internal.NewBufferStream(encoded)
	ibs, err := bitstream.NewBitReader(bs, 65536)

	if err != nil {
		return nil, err
	}

	dec, err := entropy.NewHuffmanDecoder(ibs)

	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	got, err := dec.Read(out)

	if err != nil {
		return nil, NewError(err.Error(), quasar.ERR_TRUNCATED_HISTO)
	}

	dec.Dispose()
	return out[:got], nil
}
