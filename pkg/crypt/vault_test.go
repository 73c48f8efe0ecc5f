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
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
)

func TestVault(t *testing.T) {
	v, err := NewVerifier("correct horse")
	assert.NilErr(t, err, "creating verifier")

	t.Run("wrong password", func(t *testing.T) {
		vault, err := Unlock("battery staple", v)
		assert.EqualErr(t, err, ErrWrongPassword, "error mismatch")
		assert.Equal(t, vault == nil, true, "vault should not be returned")
	})

	t.Run("correct password", func(t *testing.T) {
		vault, err := Unlock("correct horse", v)
		assert.NilErr(t, err, "unlocking")

		s, err := vault.Seal([]byte("protected text"))
		assert.NilErr(t, err, "sealing")

		again, err := Unlock("correct horse", v)
		assert.NilErr(t, err, "unlocking again")

		got, err := again.Open(s)
		assert.NilErr(t, err, "opening")
		assert.Equal(t, string(got), "protected text", "content mismatch")
	})

	t.Run("fresh salt", func(t *testing.T) {
		other, err := NewVerifier("correct horse")
		assert.NilErr(t, err, "creating another verifier")

		assert.NotEqual(t, other.Salt, v.Salt, "salt should be random")
	})
}
