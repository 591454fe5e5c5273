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

// Package container implements the fixed-layout archive header and the
// pack/unpack pipeline that composes the raster, quantiser, symbol coder
// and cipher stages into a single on-wire blob.
package container

import "fmt"

// Error wraps a quasar error code (see the root package's ERR_* constants)
// with a human-readable message, mirroring how malformed-archive failures
// are reported up to the orchestrator.
type Error struct {
	msg  string
	code int
}

// NewError creates an Error with the given quasar ERR_* code.
func NewError(msg string, code int) *Error {
	return &Error{msg: msg, code: code}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("container: %s (code %d)", e.msg, e.code)
}

// Code returns the quasar ERR_* code associated with this error.
func (e *Error) Code() int {
	return e.code
}
