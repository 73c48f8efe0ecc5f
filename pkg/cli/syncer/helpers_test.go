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
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/inkvault/inkvault/pkg/wire"
)

// memState is an in-memory Tx
type memState struct {
	records   map[string]record.Record
	bases     map[string]record.Record
	conflicts map[string]Conflict
	cursor    int64
	dirtied   bool
}

func newMemState() *memState {
	return &memState{
		records:   map[string]record.Record{},
		bases:     map[string]record.Record{},
		conflicts: map[string]Conflict{},
	}
}

func (s *memState) clone() *memState {
	ret := newMemState()
	for k, v := range s.records {
		ret.records[k] = v.Clone()
	}
	for k, v := range s.bases {
		ret.bases[k] = v.Clone()
	}
	for k, v := range s.conflicts {
		ret.conflicts[k] = v
	}
	ret.cursor = s.cursor

	return ret
}

func (s *memState) Get(id string) (*record.Record, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	r = r.Clone()

	return &r, nil
}

func (s *memState) Put(r record.Record) error {
	s.records[r.ID] = r.Clone()
	if r.IsDirty() {
		s.dirtied = true
	}

	return nil
}

func (s *memState) BulkPut(rs []record.Record) error {
	for _, r := range rs {
		s.Put(r)
	}

	return nil
}

func (s *memState) Delete(id string) error {
	delete(s.records, id)
	delete(s.bases, id)

	return nil
}

func (s *memState) BulkDelete(ids []string) error {
	for _, id := range ids {
		s.Delete(id)
	}

	return nil
}

func (s *memState) Query(f Filter) ([]record.Record, error) {
	ret := []record.Record{}
	for _, r := range s.records {
		if f.Match(r) {
			ret = append(ret, r.Clone())
		}
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].UpdatedAt != ret[j].UpdatedAt {
			return ret[i].UpdatedAt > ret[j].UpdatedAt
		}
		return ret[i].ID < ret[j].ID
	})

	return ret, nil
}

func (s *memState) GetBase(id string) (*record.Record, error) {
	r, ok := s.bases[id]
	if !ok {
		return nil, nil
	}
	r = r.Clone()

	return &r, nil
}

func (s *memState) PutBase(r record.Record) error {
	s.bases[r.ID] = r.Clone()
	return nil
}

func (s *memState) GetConflict(id string) (*Conflict, error) {
	c, ok := s.conflicts[id]
	if !ok {
		return nil, nil
	}

	return &c, nil
}

func (s *memState) PutConflict(c Conflict) error {
	s.conflicts[c.ID] = c
	return nil
}

func (s *memState) DeleteConflict(id string) error {
	delete(s.conflicts, id)
	return nil
}

func (s *memState) ListConflicts() ([]Conflict, error) {
	ret := []Conflict{}
	for _, c := range s.conflicts {
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })

	return ret, nil
}

func (s *memState) GetCursor() (int64, error) {
	return s.cursor, nil
}

func (s *memState) SetCursor(v int64) error {
	s.cursor = v
	return nil
}

// memStore is an in-memory Store
type memStore struct {
	mu      sync.Mutex
	state   *memState
	creds   Credentials
	changes chan struct{}
}

func newMemStore(creds Credentials) *memStore {
	return &memStore{
		state:   newMemState(),
		creds:   creds,
		changes: make(chan struct{}, 1),
	}
}

func (m *memStore) Update(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	m.state = next

	if next.dirtied {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}

	return nil
}

func (m *memStore) read() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

func (m *memStore) Changes() <-chan struct{} { return m.changes }

func (m *memStore) Credentials() (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.creds, nil
}

func (m *memStore) SetLoggedIn(loggedIn bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creds.LoggedIn = loggedIn
	return nil
}

func (m *memStore) Get(id string) (*record.Record, error) { return m.read().Get(id) }
func (m *memStore) Query(f Filter) ([]record.Record, error) { return m.read().Query(f) }
func (m *memStore) GetBase(id string) (*record.Record, error) { return m.read().GetBase(id) }
func (m *memStore) GetConflict(id string) (*Conflict, error) { return m.read().GetConflict(id) }
func (m *memStore) ListConflicts() ([]Conflict, error) { return m.read().ListConflicts() }
func (m *memStore) GetCursor() (int64, error) { return m.read().GetCursor() }
func (m *memStore) Put(r record.Record) error { return m.Update(func(tx Tx) error { return tx.Put(r) }) }
func (m *memStore) BulkPut(rs []record.Record) error { return m.Update(func(tx Tx) error { return tx.BulkPut(rs) }) }
func (m *memStore) Delete(id string) error { return m.Update(func(tx Tx) error { return tx.Delete(id) }) }
func (m *memStore) BulkDelete(ids []string) error { return m.Update(func(tx Tx) error { return tx.BulkDelete(ids) }) }
func (m *memStore) PutBase(r record.Record) error { return m.Update(func(tx Tx) error { return tx.PutBase(r) }) }
func (m *memStore) PutConflict(c Conflict) error { return m.Update(func(tx Tx) error { return tx.PutConflict(c) }) }
func (m *memStore) DeleteConflict(id string) error { return m.Update(func(tx Tx) error { return tx.DeleteConflict(id) }) }
func (m *memStore) SetCursor(v int64) error { return m.Update(func(tx Tx) error { return tx.SetCursor(v) }) }

// fakeTransport answers sync requests with the given handler
type fakeTransport struct {
	mu      sync.Mutex
	reqs    []wire.SyncRequest
	handler func(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error)
}

func (f *fakeTransport) Sync(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	return f.handler(ctx, req)
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.reqs)
}

func (f *fakeTransport) lastRequest() wire.SyncRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reqs[len(f.reqs)-1]
}

// echo accepts every put and returns it along with the given extra puts
func echo(syncedTo int64, extra ...wire.Put) func(context.Context, wire.SyncRequest) (wire.SyncResponse, error) {
	return func(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error) {
		puts := append([]wire.Put{}, req.Puts...)
		puts = append(puts, extra...)

		return wire.SyncResponse{Puts: puts, Conflicts: []wire.Put{}, SyncedTo: syncedTo}, nil
	}
}

func mustKey(t *testing.T) crypt.Key {
	key, err := crypt.NewKey()
	assert.NilErr(t, err, "generating key")

	return key
}

func testCredentials(t *testing.T) Credentials {
	key := mustKey(t)
	token, err := crypt.NewSyncToken(key)
	assert.NilErr(t, err, "generating sync token")

	return Credentials{Key: key, SyncToken: token, LoggedIn: true}
}

func setup(t *testing.T, handler func(context.Context, wire.SyncRequest) (wire.SyncResponse, error)) (*Orchestrator, *memStore, *fakeTransport, *clock.Mock) {
	store := newMemStore(testCredentials(t))
	transport := &fakeTransport{handler: handler}
	c := clock.NewMock()

	o := New(store, transport, Options{Clock: c})

	return o, store, transport, c
}

const (
	id1 = "0f5f0054-d23f-4be1-b5fb-57673109e9cb"
	id2 = "7e0f3c56-6d1d-4f8a-9a57-6b3c8f1d2e4a"
	id3 = "c3a1b2d4-8e9f-4a1b-b2c3-d4e5f6a7b8c9"
)

func note(id, text string, version int, updatedAt int64) record.Record {
	return record.Record{
		ID:        id,
		Kind:      record.KindNote,
		CreatedAt: 1,
		UpdatedAt: updatedAt,
		Version:   version,
		Payload:   &record.Payload{Content: record.Content{Type: record.ContentText, Text: text}},
		State:     record.StateDirty,
	}
}

func mustEncode(t *testing.T, key crypt.Key, r record.Record) wire.Put {
	p, err := EncodeRecord(key, r)
	assert.NilErr(t, err, "encoding record")

	return p
}

func mustGet(t *testing.T, s Store, id string) record.Record {
	r, err := s.Get(id)
	assert.NilErr(t, err, "getting record")
	if r == nil {
		t.Fatalf("record %s not found", id)
	}

	return *r
}

func mustUUID(t *testing.T) string {
	id, err := uuid.NewRandom()
	assert.NilErr(t, err, "generating uuid")

	return id.String()
}
