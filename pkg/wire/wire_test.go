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

package wire

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
)

const testID = "0f5f0054-d23f-4be1-b5fb-57673109e9cb"
const testToken = "QUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUE="

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

func TestPutValidate(t *testing.T) {
	testCases := []struct {
		put   Put
		field string
	}{
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, CipherText: strPtr("c"), IV: strPtr("i")},
			field: "",
		},
		{
			put:   Put{ID: testID, Type: "todo", CreatedAt: 1, UpdatedAt: 2, Version: 3, DeletedAt: int64Ptr(5)},
			field: "",
		},
		{
			put:   Put{ID: "not-a-uuid", Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, CipherText: strPtr("c"), IV: strPtr("i")},
			field: "id",
		},
		{
			put:   Put{ID: testID, Type: "book", CreatedAt: 1, UpdatedAt: 2, Version: 1, CipherText: strPtr("c"), IV: strPtr("i")},
			field: "type",
		},
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 0, UpdatedAt: 2, Version: 1, CipherText: strPtr("c"), IV: strPtr("i")},
			field: "timestamps",
		},
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 0, CipherText: strPtr("c"), IV: strPtr("i")},
			field: "version",
		},
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, DeletedAt: int64Ptr(5), CipherText: strPtr("c"), IV: strPtr("i")},
			field: "cipher_text",
		},
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, CipherText: strPtr("c")},
			field: "cipher_text",
		},
		{
			put:   Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, DeletedAt: int64Ptr(0)},
			field: "deleted_at",
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := tc.put.Validate()

			if tc.field == "" {
				assert.Equal(t, err, nil, "error mismatch")
				return
			}

			verr, ok := err.(*ValidationError)
			assert.Equal(t, ok, true, "should be a validation error")
			if ok {
				assert.Equal(t, verr.Field, tc.field, "field mismatch")
			}
		})
	}
}

func TestSyncRequestValidate(t *testing.T) {
	put := Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 1, CipherText: strPtr("c"), IV: strPtr("i")}

	testCases := []struct {
		req   SyncRequest
		field string
	}{
		{req: SyncRequest{LastSyncedTo: 0, SyncToken: testToken, Puts: []Put{put}}, field: ""},
		{req: SyncRequest{LastSyncedTo: 10, SyncToken: testToken}, field: ""},
		{req: SyncRequest{LastSyncedTo: -1, SyncToken: testToken}, field: "last_synced_to"},
		{req: SyncRequest{SyncToken: "short"}, field: "sync_token"},
		{req: SyncRequest{SyncToken: strings.Repeat("!", SyncTokenLength)}, field: "sync_token"},
		{req: SyncRequest{SyncToken: testToken, Puts: []Put{put, put}}, field: "puts"},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := tc.req.Validate()

			if tc.field == "" {
				assert.Equal(t, err, nil, "error mismatch")
				return
			}

			verr, ok := err.(*ValidationError)
			assert.Equal(t, ok, true, "should be a validation error")
			if ok {
				assert.Equal(t, verr.Field, tc.field, "field mismatch")
			}
		})
	}
}

func TestPutJSON(t *testing.T) {
	del := Put{ID: testID, Type: "note", CreatedAt: 1, UpdatedAt: 2, Version: 2, DeletedAt: int64Ptr(2)}

	b, err := json.Marshal(del)
	assert.NilErr(t, err, "marshalling")

	expected := `{"id":"0f5f0054-d23f-4be1-b5fb-57673109e9cb","type":"note","created_at":1,"updated_at":2,"cipher_text":null,"iv":null,"version":2,"deleted_at":2}`
	assert.Equal(t, string(b), expected, "payload mismatch")
}

func TestPutSize(t *testing.T) {
	maxInt64 := int64(1<<63 - 1)

	testCases := []Put{
		{ID: testID, Type: "note", CreatedAt: maxInt64, UpdatedAt: maxInt64, Version: 1 << 30, DeletedAt: int64Ptr(maxInt64)},
		{ID: testID, Type: "todo", CreatedAt: maxInt64, UpdatedAt: maxInt64, Version: 1 << 30, CipherText: strPtr(strings.Repeat("A", 4096)), IV: strPtr("AAAAAAAAAAAAAAAA")},
	}

	for idx, p := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			b, err := json.Marshal(p)
			assert.NilErr(t, err, "marshalling")

			if p.Size() < len(b) {
				t.Errorf("size %d is below the encoded size %d", p.Size(), len(b))
			}
		})
	}

	req := SyncRequest{LastSyncedTo: maxInt64, SyncToken: testToken, Puts: []Put{}}
	b, err := json.Marshal(req)
	assert.NilErr(t, err, "marshalling the request")
	if len(b) > RequestOverhead {
		t.Errorf("request envelope %d exceeds the overhead %d", len(b), RequestOverhead)
	}
}
