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

package helpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/inkvault/inkvault/pkg/assert"
)

func TestGenUUID(t *testing.T) {
	a, err := GenUUID()
	assert.NilErr(t, err, "generating")
	b, err := GenUUID()
	assert.NilErr(t, err, "generating")

	_, err = uuid.Parse(a)
	assert.NilErr(t, err, "parsing")
	assert.NotEqual(t, a, b, "uuids collide")
}

func TestNormalizeEmail(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"alice@example.com", "alice@example.com"},
		{"  Alice@Example.COM ", "alice@example.com"},
		{"", ""},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			assert.Equal(t, NormalizeEmail(tc.input), tc.expected, "result mismatch")
		})
	}
}
