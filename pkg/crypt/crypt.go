/* Copyright 2026 Inkvault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package crypt provides the authenticated encryption of record payloads
// and the key material used to synchronize them
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length of a symmetric key in bytes
	KeySize = 32
	// NonceSize is the length of a GCM nonce in bytes
	NonceSize = 12
	// MaxPlaintextSize is the largest payload that can be encrypted
	MaxPlaintextSize = 8 << 20

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4

	syncTokenInfo = "inkvault sync token"
)

var (
	// ErrDecrypt is returned when a ciphertext cannot be opened with the given key
	ErrDecrypt = errors.New("decryption failed")
	// ErrInvalidKey is returned for a key of the wrong length
	ErrInvalidKey = errors.New("invalid key length")
	// ErrTooLarge is returned when the plaintext exceeds MaxPlaintextSize
	ErrTooLarge = errors.New("plaintext too large")
)

// Key is a symmetric encryption key
type Key []byte

// Sealed is an encrypted blob in its wire form
type Sealed struct {
	CipherText string `json:"cipher_text"`
	IV         string `json:"iv"`
}

// NewKey generates a random key
func NewKey() (Key, error) {
	b := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, errors.Wrap(err, "reading random bytes")
	}

	return Key(b), nil
}

// DeriveKey derives a key from the given password and salt using argon2id
func DeriveKey(password, salt []byte) Key {
	return Key(argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize))
}

// EncodeKey encodes the key to a string for storage
func EncodeKey(key Key) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey decodes a key previously encoded by EncodeKey
func DecodeKey(s string) (Key, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding key")
	}
	if len(b) != KeySize {
		return nil, ErrInvalidKey
	}

	return Key(b), nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "initializing cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "initializing gcm")
	}

	return gcm, nil
}

// Encrypt seals the plaintext with AES-256-GCM under a fresh random nonce
func Encrypt(key Key, plaintext []byte) (Sealed, error) {
	if len(plaintext) > MaxPlaintextSize {
		return Sealed{}, ErrTooLarge
	}

	gcm, err := newGCM(key)
	if err != nil {
		return Sealed{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, errors.Wrap(err, "generating nonce")
	}

	ct := gcm.Seal(nil, nonce, plaintext, nil)

	return Sealed{
		CipherText: base64.StdEncoding.EncodeToString(ct),
		IV:         base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens a blob sealed by Encrypt. Any malformed input, wrong key or
// tampering results in ErrDecrypt.
func Decrypt(key Key, s Sealed) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(nonce) != NonceSize {
		return nil, errors.Wrap(ErrDecrypt, "invalid iv")
	}
	ct, err := base64.StdEncoding.DecodeString(s.CipherText)
	if err != nil {
		return nil, errors.Wrap(ErrDecrypt, "invalid cipher text")
	}

	plaintext, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	if plaintext == nil {
		plaintext = []byte{}
	}

	return plaintext, nil
}

// NewSyncToken derives the account-bound sync token from the key. Two keys
// never share a token, which lets the server reject a client that holds a
// different key for the same account.
func NewSyncToken(key Key) (string, error) {
	if len(key) != KeySize {
		return "", ErrInvalidKey
	}

	r := hkdf.New(sha256.New, key, nil, []byte(syncTokenInfo))
	b := make([]byte, 32)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errors.Wrap(err, "deriving sync token")
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

// RandomString returns a base64 encoded string of n random bytes
func RandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}

	return base64.StdEncoding.EncodeToString(b), nil
}
