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

package testutils

import (
	"testing"

	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

// Record ids used by the setups
const (
	NoteID1 = "43827b9a-c2b0-4c06-a290-97991c896653"
	NoteID2 = "f0d0fbb7-31ff-45ae-9f0f-4e429c0c797f"
	TodoID  = "3e065d55-6d47-42f2-a6bf-f5844130b2d2"
	LabelID = "9b8c7d6e-5f4a-4b3c-9d2e-1f0a9b8c7d6e"
)

func textPayload(s string) record.Payload {
	return record.Payload{Content: record.Content{Type: record.ContentText, Text: s}}
}

func mustPut(t *testing.T, s *database.Store, r record.Record, synced bool) {
	if synced {
		r = r.Synced()
		if err := s.PutBase(r); err != nil {
			t.Fatal(errors.Wrap(err, "putting a base"))
		}
	}

	if err := s.Put(r); err != nil {
		t.Fatal(errors.Wrap(err, "putting a record"))
	}
}

// Setup1 sets up an inkvault env #1 with records that were never synced
func Setup1(t *testing.T, s *database.Store) {
	mustPut(t, s, record.New(NoteID1, record.KindNote, textPayload("Booleans have toString()"), 1515199943000), false)
	mustPut(t, s, record.New(LabelID, record.KindLabel, record.Payload{Title: "js", Color: "yellow"}, 1515199944000), false)
}

// Setup2 sets up an inkvault env #2 with synced records and a local edit
func Setup2(t *testing.T, s *database.Store) {
	mustPut(t, s, record.New(NoteID1, record.KindNote, textPayload("n1 body"), 1515199943000), true)

	n2 := record.New(NoteID2, record.KindNote, textPayload("n2 body"), 1515199951000)
	mustPut(t, s, n2, true)
	mustPut(t, s, n2.Synced().Edit(textPayload("n2 body edited"), 1515199961000), false)

	todo := record.New(TodoID, record.KindTodo, record.Payload{
		Title: "groceries",
		Content: record.Content{Type: record.ContentList, Items: []record.Item{
			{ID: "a", Text: "milk", UpdatedAt: 1515199971000},
		}},
	}, 1515199971000)
	mustPut(t, s, todo, false)
}
