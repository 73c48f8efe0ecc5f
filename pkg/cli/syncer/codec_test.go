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

package syncer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/inkvault/inkvault/pkg/wire"
	"pgregory.net/rapid"
)

func TestCodec(t *testing.T) {
	key := mustKey(t)

	large := strings.Repeat("a", 1<<20)
	tomb := note(id1, "", 3, 20)
	tomb.Payload = nil
	tomb.DeletedAt = 20

	testCases := []record.Record{
		note(id1, "", 1, 10),
		note(id1, "hello", 1, 10),
		note(id1, large, 2, 10),
		tomb,
		{
			ID:        id2,
			Kind:      record.KindTodo,
			CreatedAt: 5,
			UpdatedAt: 6,
			Version:   7,
			Payload: &record.Payload{
				Title:   "groceries",
				Content: record.Content{Type: record.ContentList, Items: []record.Item{{ID: "i1", Text: "milk", Done: true, UpdatedAt: 6}}},
				Labels:  []string{"home"},
			},
			State: record.StateDirty,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			p, err := EncodeRecord(key, tc)
			assert.NilErr(t, err, "encoding")
			assert.NilErr(t, p.Validate(), "the put should be valid")
			assert.Equal(t, p.IsDeleted(), tc.IsDeleted(), "deletion mismatch")

			got, err := DecodeRecord(key, p)
			assert.NilErr(t, err, "decoding")
			assert.DeepEqual(t, got, tc.Synced(), "record mismatch")
		})
	}
}

func TestDecodeRecord_wrongKey(t *testing.T) {
	p := mustEncode(t, mustKey(t), note(id1, "secret", 1, 10))

	_, err := DecodeRecord(mustKey(t), p)
	assert.EqualErr(t, err, crypt.ErrDecrypt, "error mismatch")
}

func TestDecodeRecord_invalid(t *testing.T) {
	deletedAt := int64(5)
	cipher := "abc"

	testCases := []wire.Put{
		{ID: "not-a-uuid", Type: "note", CreatedAt: 1, UpdatedAt: 1, Version: 1, DeletedAt: &deletedAt},
		{ID: id1, Type: "unknown", CreatedAt: 1, UpdatedAt: 1, Version: 1, DeletedAt: &deletedAt},
		{ID: id1, Type: "note", CreatedAt: 1, UpdatedAt: 1, Version: 1},
		{ID: id1, Type: "note", CreatedAt: 1, UpdatedAt: 1, Version: 1, DeletedAt: &deletedAt, CipherText: &cipher},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			_, err := DecodeRecord(mustKey(t), tc)
			assert.NotEqual(t, err, nil, "should error")
		})
	}
}

func TestRedact(t *testing.T) {
	p := mustEncode(t, mustKey(t), note(id1, "secret", 1, 10))

	got := redact([]wire.Put{p})
	assert.Equal(t, *got[0].CipherText, "<redacted>", "cipher text should be redacted")
	assert.NotEqual(t, *p.CipherText, "<redacted>", "the original should be untouched")
}

func TestCodec_property(t *testing.T) {
	key := mustKey(t)

	rapid.Check(t, func(t *rapid.T) {
		p := record.Payload{
			Title:    rapid.String().Draw(t, "title"),
			Archived: rapid.Bool().Draw(t, "archived"),
		}
		if rapid.Bool().Draw(t, "list") {
			n := rapid.IntRange(1, 5).Draw(t, "items")
			p.Content.Type = record.ContentList
			for i := 0; i < n; i++ {
				p.Content.Items = append(p.Content.Items, record.Item{
					ID:        fmt.Sprintf("item-%d", i),
					Text:      rapid.String().Draw(t, "item"),
					Done:      rapid.Bool().Draw(t, "done"),
					UpdatedAt: rapid.Int64Range(0, 1<<40).Draw(t, "item_updated_at"),
				})
			}
		} else {
			p.Content.Type = record.ContentText
			p.Content.Text = rapid.String().Draw(t, "text")
		}
		if labels := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 3).Draw(t, "labels"); len(labels) > 0 {
			p.Labels = labels
		}

		r := record.Record{
			ID:        id1,
			Kind:      record.KindNote,
			CreatedAt: rapid.Int64Range(1, 1<<42).Draw(t, "created_at"),
			UpdatedAt: rapid.Int64Range(1, 1<<42).Draw(t, "updated_at"),
			Version:   rapid.IntRange(1, 1000).Draw(t, "version"),
			Payload:   &p,
			State:     record.StateDirty,
		}

		put, err := EncodeRecord(key, r)
		if err != nil {
			t.Fatalf("encoding: %s", err)
		}
		got, err := DecodeRecord(key, put)
		if err != nil {
			t.Fatalf("decoding: %s", err)
		}

		expected := r.Synced()
		if got.Version != expected.Version || got.UpdatedAt != expected.UpdatedAt || got.State != record.StateSynced {
			t.Fatalf("metadata mismatch: %+v", got)
		}
		if got.Payload.Title != p.Title || got.Payload.Content.Text != p.Content.Text || len(got.Payload.Content.Items) != len(p.Content.Items) {
			t.Fatalf("payload mismatch: %+v != %+v", *got.Payload, p)
		}
		for i := range p.Content.Items {
			if got.Payload.Content.Items[i] != p.Content.Items[i] {
				t.Fatalf("item %d mismatch", i)
			}
		}
	})
}
