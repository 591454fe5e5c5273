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

package main

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	quasar "github.com/nightwing-systems/quasar"
)

// StageTimer is a Listener that prints pipeline and link-layer events to
// writer, pairing BEFORE_* events with their AFTER_* counterpart to
// report a stage duration. verbosity 0 prints nothing; 1 prints one
// line per completed stage plus every frame sent, received or discarded
// event; 2 and above echo every event verbatim.
type StageTimer struct {
	writer    io.Writer
	verbosity uint
	lock      sync.Mutex
	opened    map[int]time.Time
}

// NewStageTimer creates a StageTimer writing to w.
func NewStageTimer(verbosity uint, w io.Writer) (*StageTimer, error) {
	if w == nil {
		return nil, errors.New("quasar: nil writer passed to NewStageTimer")
	}

	return &StageTimer{writer: w, verbosity: verbosity, opened: make(map[int]time.Time)}, nil
}

var stageNames = map[int]string{
	quasar.EVT_BEFORE_WAVELET: "wavelet",
	quasar.EVT_BEFORE_ENTROPY: "entropy",
	quasar.EVT_BEFORE_CIPHER:  "cipher",
}

var closesStage = map[int]int{
	quasar.EVT_AFTER_WAVELET: quasar.EVT_BEFORE_WAVELET,
	quasar.EVT_AFTER_ENTROPY: quasar.EVT_BEFORE_ENTROPY,
	quasar.EVT_AFTER_CIPHER:  quasar.EVT_BEFORE_CIPHER,
}

// ProcessEvent implements quasar.Listener.
func (s *StageTimer) ProcessEvent(evt *quasar.Event) {
	if s.verbosity == 0 {
		return
	}

	if s.verbosity >= 2 {
		fmt.Fprintln(s.writer, evt)
		return
	}

	if _, opens := stageNames[evt.Type()]; opens {
		s.lock.Lock()
		s.opened[evt.Type()] = evt.Time()
		s.lock.Unlock()
		return
	}

	opener, closes := closesStage[evt.Type()]

	if !closes {
		switch evt.Type() {
		case quasar.EVT_FRAME_SENT, quasar.EVT_FRAME_RECEIVED, quasar.EVT_FRAME_DISCARDED:
			fmt.Fprintln(s.writer, evt)
		}

		return
	}

	s.lock.Lock()
	start, ok := s.opened[opener]
	delete(s.opened, opener)
	s.lock.Unlock()

	if !ok {
		return
	}

	durationMS := evt.Time().Sub(start).Nanoseconds() / int64(time.Millisecond)
	fmt.Fprintf(s.writer, "%s: %d bytes [%d ms]\n", stageNames[opener], evt.Size(), durationMS)
}
