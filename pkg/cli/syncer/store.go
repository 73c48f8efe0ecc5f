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
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
)

// Filter selects records in a query. Zero fields match everything except
// tombstones, which are only returned with IncludeDeleted.
type Filter struct {
	State          record.State
	Kind           record.Kind
	IncludeDeleted bool
}

// Match reports whether the record is selected by the filter
func (f Filter) Match(r record.Record) bool {
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if r.IsDeleted() && !f.IncludeDeleted {
		return false
	}

	return true
}

// Conflict is a record the merge engine could not reconcile. It waits for
// the user to pick a side.
type Conflict struct {
	ID        string
	Local     record.Record
	Remote    record.Record
	Reason    string
	CreatedAt int64
}

// Credentials are what a device needs to sync with its account
type Credentials struct {
	Key       crypt.Key
	SyncToken string
	LoggedIn  bool
}

// Tx reads and writes the local store. Writes made through a Tx passed to
// Store.Update are committed atomically.
type Tx interface {
	// Get returns nil if no record has the id
	Get(id string) (*record.Record, error)
	Put(r record.Record) error
	BulkPut(rs []record.Record) error
	// Delete removes the record along with its base snapshot
	Delete(id string) error
	BulkDelete(ids []string) error
	Query(f Filter) ([]record.Record, error)

	// GetBase returns the last copy known to match the server, or nil
	GetBase(id string) (*record.Record, error)
	PutBase(r record.Record) error

	GetConflict(id string) (*Conflict, error)
	PutConflict(c Conflict) error
	DeleteConflict(id string) error
	ListConflicts() ([]Conflict, error)

	GetCursor() (int64, error)
	SetCursor(v int64) error
}

// Store is the local record store of a device
type Store interface {
	Tx
	// Update runs fn in a transaction. Updates are serialized.
	Update(fn func(tx Tx) error) error
	// Changes receives a value after a committed update leaves a dirty record
	Changes() <-chan struct{}
	Credentials() (Credentials, error)
	SetLoggedIn(loggedIn bool) error
}
