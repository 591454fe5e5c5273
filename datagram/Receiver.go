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
	"sync"
	"time"

	quasar "github.com/nightwing-systems/quasar"
)

// DefaultStaleTimeout is how long a partial frame reassembly buffer is
// kept before the eviction sweep drops it. A threshold <= 0 passed to
// NewReceiver disables the sweep entirely, recovering the originally
// specified unbounded-retention behavior.
const DefaultStaleTimeout = 30 * time.Second

// frameBuffer accumulates the chunks of one in-flight frame.
type frameBuffer struct {
	totalChunks uint16
	chunks      map[uint16][]byte
	firstSeen   time.Time
}

// Receiver binds a UDP port once and reassembles fragmented frames
// arriving from one or more transmitters.
type Receiver struct {
	conn       *net.UDPConn
	mu         sync.Mutex
	buffers    map[uint32]*frameBuffer
	listeners  []quasar.Listener
	staleAfter time.Duration
	stopSweep  chan struct{}
	closeOnce  sync.Once
}

// NewReceiver binds to port and starts the stale-buffer eviction sweep.
// staleAfter <= 0 disables the sweep.
func NewReceiver(port int, staleAfter time.Duration) (*Receiver, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})

	if err != nil {
		return nil, fmt.Errorf("datagram: failed to bind port %d: %w", port, err)
	}

	r := &Receiver{
		conn:       conn,
		buffers:    make(map[uint32]*frameBuffer),
		staleAfter: staleAfter,
	}

	if staleAfter > 0 {
		r.stopSweep = make(chan struct{})
		go r.sweepLoop()
	}

	return r, nil
}

// AddListener registers l to receive frame-received and frame-discarded
// events.
func (r *Receiver) AddListener(l quasar.Listener) {
	r.listeners = append(r.listeners, l)
}

// LocalAddr returns the address the receiver's socket is bound to, for
// callers that bound to port 0 and need to discover which port the
// kernel assigned.
func (r *Receiver) LocalAddr() string {
	return r.conn.LocalAddr().String()
}

// Close releases the socket and stops the eviction sweep. Safe to call
// more than once, since a caller racing to unblock a pending Listen()
// with a concurrent shutdown may trigger it from two goroutines.
func (r *Receiver) Close() error {
	var err error

	r.closeOnce.Do(func() {
		if r.stopSweep != nil {
			close(r.stopSweep)
		}

		err = r.conn.Close()
	})

	return err
}

func (r *Receiver) sweepLoop() {
	ticker := time.NewTicker(r.staleAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopSweep:
			return
		case <-ticker.C:
			r.evictStale()
		}
	}
}

func (r *Receiver) evictStale() {
	now := time.Now()
	r.mu.Lock()
	var discarded []uint32

	for frameID, buf := range r.buffers {
		if now.Sub(buf.firstSeen) > r.staleAfter {
			discarded = append(discarded, frameID)
			delete(r.buffers, frameID)
		}
	}

	r.mu.Unlock()

	for _, frameID := range discarded {
		for _, l := range r.listeners {
			l.ProcessEvent(quasar.NewEventFromString(quasar.EVT_FRAME_DISCARDED, int(frameID), "", time.Time{}))
		}
	}
}

// Listen blocks the calling goroutine on the socket, receiving
// fragments and reassembling frames, until a full frame completes or an
// error occurs on the socket.
func (r *Receiver) Listen() ([]byte, error) {
	buf := make([]byte, HeaderSize+MaxPayload)

	for {
		n, _, err := r.conn.ReadFromUDP(buf)

		if err != nil {
			return nil, fmt.Errorf("datagram: receive failed: %w", err)
		}

		pkt, err := DecodePacket(buf[:n])

		if err != nil {
			// Malformed or truncated datagram: drop silently.
			continue
		}

		blob, complete := r.ingest(pkt)

		if complete {
			return blob, nil
		}
	}
}

// ingest records pkt in its frame's reassembly buffer. If the frame is
// now complete, returns the concatenated blob and true, releasing the
// buffer.
func (r *Receiver) ingest(pkt *Packet) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fb, ok := r.buffers[pkt.FrameID]

	if !ok {
		fb = &frameBuffer{chunks: make(map[uint16][]byte), firstSeen: time.Now()}
		r.buffers[pkt.FrameID] = fb
	}

	fb.totalChunks = pkt.TotalChunks
	fb.chunks[pkt.ChunkID] = pkt.Payload

	if uint16(len(fb.chunks)) != fb.totalChunks {
		return nil, false
	}

	blob := make([]byte, 0, len(fb.chunks)*MaxPayload)

	for i := uint16(0); i < fb.totalChunks; i++ {
		blob = append(blob, fb.chunks[i]...)
	}

	delete(r.buffers, pkt.FrameID)

	for _, l := range r.listeners {
		l.ProcessEvent(quasar.NewEvent(quasar.EVT_FRAME_RECEIVED, int(pkt.FrameID), int64(len(blob)), 0, quasar.EVT_HASH_NONE, time.Time{}))
	}

	return blob, true
}
