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

package quasar

import (
	"fmt"
	"time"
)

const (
	EVT_PACK_START       = 0 // pipeline pack starts
	EVT_UNPACK_START     = 1 // pipeline unpack starts
	EVT_BEFORE_WAVELET   = 2 // Haar transform forward/inverse starts
	EVT_AFTER_WAVELET    = 3 // Haar transform forward/inverse ends
	EVT_BEFORE_ENTROPY   = 4 // Huffman encoding/decoding starts
	EVT_AFTER_ENTROPY    = 5 // Huffman encoding/decoding ends
	EVT_BEFORE_CIPHER    = 6 // ChaCha20 keystream pass starts
	EVT_AFTER_CIPHER     = 7 // ChaCha20 keystream pass ends
	EVT_PACK_END         = 8 // pipeline pack ends
	EVT_UNPACK_END       = 9 // pipeline unpack ends
	EVT_AFTER_HEADER     = 10 // container header decoded
	EVT_FRAME_SENT       = 11 // a datagram frame has been fully transmitted
	EVT_FRAME_RECEIVED   = 12 // a datagram frame has been fully reassembled
	EVT_FRAME_DISCARDED  = 13 // a stale reassembly buffer was evicted

	EVT_HASH_NONE   = 0
	EVT_HASH_32BITS = 32
	EVT_HASH_64BITS = 64
)

// Event is a pipeline or link-layer event raised while packing, unpacking,
// transmitting or receiving a frame.
type Event struct {
	eventType int
	id        int
	size      int64
	hash      uint64
	hashType  int
	eventTime time.Time
	msg       string
}

// NewEventFromString creates a new Event instance that wraps a message
func NewEventFromString(evtType, id int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, id: id, size: 0, msg: msg, eventTime: evtTime}
}

// NewEvent creates a new Event instance with size and hash info
// Returns nil if the hashType is not in { EVT_HASH_NONE, EVT_HASH_32BITS, EVT_HASH_64BITS }
func NewEvent(evtType, id int, size int64, hash uint64, hashType int, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	if hashType != EVT_HASH_NONE && hashType != EVT_HASH_32BITS && hashType != EVT_HASH_64BITS {
		return nil
	}

	return &Event{eventType: evtType, id: id, size: size, hash: hash,
		hashType: hashType, eventTime: evtTime}
}

// Type returns the type info
func (this *Event) Type() int {
	return this.eventType
}

// ID returns the id info
func (this *Event) ID() int {
	return this.id
}

// Time returns the time info
func (this *Event) Time() time.Time {
	return this.eventTime
}

// Size returns the size info
func (this *Event) Size() int64 {
	return this.size
}

// Hash returns the hash info
func (this *Event) Hash() uint64 {
	return this.hash
}

// HashType returns EVT_HASH_NONE, EVT_HASH_32BITS or EVT_HASH_64BITS
func (this *Event) HashType() int {
	return this.hashType
}

// String returns a string representation of this event.
// If the event wraps a message, the message is returned.
// Otherwise a string is built from the fields.
func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	hash := ""
	t := ""
	id := ""

	if this.hashType != EVT_HASH_NONE {
		hash = fmt.Sprintf(", \"hash\": %x", this.hash)
	}

	if this.id >= 0 {
		id = fmt.Sprintf(", \"id\": %d", this.id)
	}

	switch this.eventType {
	case EVT_BEFORE_WAVELET:
		t = "BEFORE_WAVELET"

	case EVT_AFTER_WAVELET:
		t = "AFTER_WAVELET"

	case EVT_BEFORE_ENTROPY:
		t = "BEFORE_ENTROPY"

	case EVT_AFTER_ENTROPY:
		t = "AFTER_ENTROPY"

	case EVT_BEFORE_CIPHER:
		t = "BEFORE_CIPHER"

	case EVT_AFTER_CIPHER:
		t = "AFTER_CIPHER"

	case EVT_PACK_START:
		t = "PACK_START"

	case EVT_UNPACK_START:
		t = "UNPACK_START"

	case EVT_PACK_END:
		t = "PACK_END"

	case EVT_UNPACK_END:
		t = "UNPACK_END"

	case EVT_FRAME_SENT:
		t = "FRAME_SENT"

	case EVT_FRAME_RECEIVED:
		t = "FRAME_RECEIVED"

	case EVT_FRAME_DISCARDED:
		t = "FRAME_DISCARDED"
	}

	return fmt.Sprintf("{ \"type\":\"%s\"%s, \"size\":%d, \"time\":%d%s }", t, id, this.size,
		this.eventTime.UnixNano()/1000000, hash)
}

// Listener is an interface implemented by event processors
type Listener interface {
	// ProcessEvent is the method called whenever a Listener receives an event.
	ProcessEvent(evt *Event)
}
