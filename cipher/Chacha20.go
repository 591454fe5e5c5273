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

// Package cipher wraps the RFC 8439 ChaCha20 keystream used to XOR an
// encoded archive payload. There is no authentication tag: the cipher
// is used purely as a pseudorandom XOR mask, never as an AEAD.
package cipher

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// KeySize is the ChaCha20 key size in bytes (256 bits).
const KeySize = chacha20.KeySize

// NonceSize is the ChaCha20 nonce size in bytes (96 bits).
const NonceSize = chacha20.NonceSize

// GenerateKey returns a fresh, uniformly random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)

	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cipher: failed to generate key: %w", err)
	}

	return key, nil
}

// GenerateNonce returns a fresh, uniformly random 96-bit nonce.
func GenerateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)

	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cipher: failed to generate nonce: %w", err)
	}

	return nonce, nil
}

// Process XORs data in place with the ChaCha20 keystream derived from
// key, nonce and the initial block counter. It is an involution:
// calling Process twice with identical parameters restores the original
// data, since XOR with the same keystream is self-inverse.
func Process(data, key, nonce []byte, counter uint32) error {
	if len(key) != KeySize {
		return fmt.Errorf("cipher: key must be %d bytes, got %d", KeySize, len(key))
	}

	if len(nonce) != NonceSize {
		return fmt.Errorf("cipher: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)

	if err != nil {
		return fmt.Errorf("cipher: failed to construct ChaCha20 stream: %w", err)
	}

	c.SetCounter(counter)
	c.XORKeyStream(data, data)
	return nil
}
