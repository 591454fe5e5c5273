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
	"fmt"
	"net"
	"time"

	quasar "github.com/nightwing-systems/quasar"
)

// pacingDelay is the inter-chunk sleep the transmitter inserts to avoid
// saturating the receiver's socket buffer.
const pacingDelay = 100 * time.Microsecond

// Transmitter sends an archive blob as a sequence of fragmented UDP
// datagrams to a single fixed peer.
type Transmitter struct {
	conn        *net.UDPConn
	frameCounter uint32
	listeners   []quasar.Listener
}

// NewTransmitter dials addr over UDP. No handshake occurs; UDP has none.
func NewTransmitter(addr string) (*Transmitter, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)

	if err != nil {
		return nil, fmt.Errorf("datagram: failed to resolve %q: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)

	if err != nil {
		return nil, fmt.Errorf("datagram: failed to dial %q: %w", addr, err)
	}

	return &Transmitter{conn: conn}, nil
}

// AddListener registers l to receive frame-sent events.
func (t *Transmitter) AddListener(l quasar.Listener) {
	t.listeners = append(t.listeners, l)
}

// Close releases the underlying socket.
func (t *Transmitter) Close() error {
	return t.conn.Close()
}

// SendFrame fragments blob and emits one datagram per chunk, in
// ascending chunk_id order, pacing emission with a brief sleep between
// chunks. The frame counter starts at 0; the first frame sent is 1.
func (t *Transmitter) SendFrame(blob []byte) (uint32, error) {
	t.frameCounter++
	frameID := t.frameCounter
	packets := Fragment(frameID, blob)

	for _, pkt := range packets {
		if _, err := t.conn.Write(pkt.Encode()); err != nil {
			return frameID, fmt.Errorf("datagram: send failed for frame %d chunk %d: %w", frameID, pkt.ChunkID, err)
		}

		time.Sleep(pacingDelay)
	}

	for _, l := range t.listeners {
		l.ProcessEvent(quasar.NewEvent(quasar.EVT_FRAME_SENT, int(frameID), int64(len(blob)), 0, quasar.EVT_HASH_NONE, time.Time{}))
	}

	return frameID, nil
}
