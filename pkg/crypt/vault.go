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

package crypt

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
)

const (
	saltSize          = 16
	verifierPlaintext = "inkvault vault verifier v1"
)

// ErrWrongPassword is returned when a vault password does not match the verifier
var ErrWrongPassword = errors.New("wrong vault password")

// Verifier is a known plaintext sealed under a password-derived key. It is
// stored in place of the password.
type Verifier struct {
	Salt string `json:"salt"`
	Sealed
}

// Vault holds the password-derived key for protected records in memory
type Vault struct {
	key Key
}

// NewVerifier derives a key from the password under a fresh salt and seals
// the known plaintext with it
func NewVerifier(password string) (Verifier, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return Verifier{}, errors.Wrap(err, "generating salt")
	}

	key := DeriveKey([]byte(password), salt)
	s, err := Encrypt(key, []byte(verifierPlaintext))
	if err != nil {
		return Verifier{}, errors.Wrap(err, "sealing verifier")
	}

	return Verifier{
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Sealed: s,
	}, nil
}

// Unlock verifies the password against the verifier and returns a vault
// holding the derived key
func Unlock(password string, v Verifier) (*Vault, error) {
	salt, err := base64.StdEncoding.DecodeString(v.Salt)
	if err != nil {
		return nil, errors.Wrap(err, "decoding salt")
	}

	key := DeriveKey([]byte(password), salt)
	plaintext, err := Decrypt(key, v.Sealed)
	if err != nil {
		return nil, ErrWrongPassword
	}
	if subtle.ConstantTimeCompare(plaintext, []byte(verifierPlaintext)) != 1 {
		return nil, ErrWrongPassword
	}

	return &Vault{key: key}, nil
}

// Seal encrypts protected content with the vault key
func (v *Vault) Seal(plaintext []byte) (Sealed, error) {
	return Encrypt(v.key, plaintext)
}

// Open decrypts protected content with the vault key
func (v *Vault) Open(s Sealed) ([]byte, error) {
	return Decrypt(v.key, s)
}
