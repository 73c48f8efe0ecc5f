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

package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/cli/context"
)

func TestReadWrite(t *testing.T) {
	ctx := context.InitTestCtx(t)

	cf := Default("vim")
	cf.APIEndpoint = "https://example.com/api"
	assert.NilErr(t, Write(ctx, cf), "writing")

	got, err := Read(ctx)
	assert.NilErr(t, err, "reading")
	assert.DeepEqual(t, got, cf, "config mismatch")
}

func TestTimeout(t *testing.T) {
	testCases := []struct {
		value       string
		expected    time.Duration
		expectedErr error
	}{
		{value: "", expected: 30 * time.Second},
		{value: "10s", expected: 10 * time.Second},
		{value: "2m", expected: 2 * time.Minute},
		{value: "0s", expectedErr: ErrInvalidSyncTimeout},
		{value: "-1s", expectedErr: ErrInvalidSyncTimeout},
		{value: "soon", expectedErr: ErrInvalidSyncTimeout},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			d, err := Config{SyncTimeout: tc.value}.Timeout()
			assert.Equal(t, err, tc.expectedErr, "error mismatch")
			assert.Equal(t, d, tc.expected, "duration mismatch")
		})
	}
}

func TestSchedule(t *testing.T) {
	testCases := []struct {
		value       string
		expected    string
		expectedErr error
	}{
		{value: "", expected: DefaultSyncSchedule},
		{value: "@hourly", expected: "@hourly"},
		{value: "@every 30s", expected: "@every 30s"},
		{value: "0 */10 * * * *", expected: "0 */10 * * * *"},
		{value: "whenever", expectedErr: ErrInvalidSyncSchedule},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			s, err := Config{SyncSchedule: tc.value}.Schedule()
			assert.Equal(t, err, tc.expectedErr, "error mismatch")
			assert.Equal(t, s, tc.expected, "schedule mismatch")
		})
	}
}
