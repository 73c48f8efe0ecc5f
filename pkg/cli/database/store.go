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

package database

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no record matches an id
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguousID is returned when an id prefix matches more than one record
	ErrAmbiguousID = errors.New("id prefix matches more than one record")
)

const recordColumns = "id, kind, created_at, updated_at, version, deleted_at, payload, state"

// Store is the local record store backed by SQLite
type Store struct {
	db      *DB
	mu      sync.Mutex
	changes chan struct{}
}

// NewStore returns a store on the given database
func NewStore(db *DB) *Store {
	return &Store{
		db:      db,
		changes: make(chan struct{}, 1),
	}
}

// accessor runs the record operations on a connection or a transaction
type accessor struct {
	db      *DB
	dirtied bool
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (record.Record, error) {
	var r record.Record
	var kind, state string
	var payload sql.NullString

	if err := s.Scan(&r.ID, &kind, &r.CreatedAt, &r.UpdatedAt, &r.Version, &r.DeletedAt, &payload, &state); err != nil {
		return r, err
	}
	r.Kind = record.Kind(kind)
	r.State = record.State(state)

	if payload.Valid {
		var p record.Payload
		if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
			return r, errors.Wrapf(err, "decoding payload of %s", r.ID)
		}
		r.Payload = &p
	}

	return r, nil
}

func encodePayload(r record.Record) (sql.NullString, error) {
	if r.Payload == nil {
		return sql.NullString{}, nil
	}

	b, err := json.Marshal(r.Payload)
	if err != nil {
		return sql.NullString{}, errors.Wrapf(err, "encoding payload of %s", r.ID)
	}

	return sql.NullString{String: string(b), Valid: true}, nil
}

func (a *accessor) queryRecords(query string, args ...interface{}) ([]record.Record, error) {
	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}
	defer rows.Close()

	ret := []record.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning record")
		}
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating records")
	}

	return ret, nil
}

func (a *accessor) Get(id string) (*record.Record, error) {
	r, err := scanRecord(a.db.QueryRow("SELECT "+recordColumns+" FROM records WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding record %s", id)
	}

	return &r, nil
}

func (a *accessor) Put(r record.Record) error {
	payload, err := encodePayload(r)
	if err != nil {
		return err
	}

	_, err = a.db.Exec(`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			version = excluded.version,
			deleted_at = excluded.deleted_at,
			payload = excluded.payload,
			state = excluded.state`,
		r.ID, string(r.Kind), r.CreatedAt, r.UpdatedAt, r.Version, r.DeletedAt, payload, string(r.State))
	if err != nil {
		return errors.Wrapf(err, "saving record %s", r.ID)
	}

	if r.IsDirty() {
		a.dirtied = true
	}

	return nil
}

func (a *accessor) BulkPut(rs []record.Record) error {
	for _, r := range rs {
		if err := a.Put(r); err != nil {
			return err
		}
	}

	return nil
}

func (a *accessor) Delete(id string) error {
	if _, err := a.db.Exec("DELETE FROM records WHERE id = ?", id); err != nil {
		return errors.Wrapf(err, "deleting record %s", id)
	}
	if _, err := a.db.Exec("DELETE FROM base_snapshots WHERE id = ?", id); err != nil {
		return errors.Wrapf(err, "deleting base snapshot %s", id)
	}

	return nil
}

func (a *accessor) BulkDelete(ids []string) error {
	for _, id := range ids {
		if err := a.Delete(id); err != nil {
			return err
		}
	}

	return nil
}

func (a *accessor) Query(f syncer.Filter) ([]record.Record, error) {
	var conds []string
	var args []interface{}

	if f.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, string(f.State))
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at = 0")
	}

	query := "SELECT " + recordColumns + " FROM records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC, id"

	return a.queryRecords(query, args...)
}

// findByPrefix finds the live record whose id starts with the prefix
func (a *accessor) findByPrefix(prefix string) (record.Record, error) {
	if prefix == "" {
		return record.Record{}, ErrNotFound
	}

	rs, err := a.queryRecords("SELECT "+recordColumns+" FROM records WHERE id LIKE ? AND deleted_at = 0 LIMIT 2",
		strings.ReplaceAll(prefix, "%", "")+"%")
	if err != nil {
		return record.Record{}, err
	}

	switch len(rs) {
	case 0:
		return record.Record{}, ErrNotFound
	case 1:
		return rs[0], nil
	}

	return record.Record{}, ErrAmbiguousID
}

func (a *accessor) GetBase(id string) (*record.Record, error) {
	var data string
	err := a.db.QueryRow("SELECT data FROM base_snapshots WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding base snapshot %s", id)
	}

	var r record.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, errors.Wrapf(err, "decoding base snapshot %s", id)
	}

	return &r, nil
}

func (a *accessor) PutBase(r record.Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrapf(err, "encoding base snapshot %s", r.ID)
	}

	_, err = a.db.Exec(`INSERT INTO base_snapshots (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`, r.ID, string(b))
	if err != nil {
		return errors.Wrapf(err, "saving base snapshot %s", r.ID)
	}

	return nil
}

func scanConflict(s scanner) (syncer.Conflict, error) {
	var c syncer.Conflict
	var local, remote string

	if err := s.Scan(&c.ID, &local, &remote, &c.Reason, &c.CreatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(local), &c.Local); err != nil {
		return c, errors.Wrapf(err, "decoding local copy of conflict %s", c.ID)
	}
	if err := json.Unmarshal([]byte(remote), &c.Remote); err != nil {
		return c, errors.Wrapf(err, "decoding remote copy of conflict %s", c.ID)
	}

	return c, nil
}

func (a *accessor) GetConflict(id string) (*syncer.Conflict, error) {
	c, err := scanConflict(a.db.QueryRow("SELECT id, local, remote, reason, created_at FROM conflicts WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding conflict %s", id)
	}

	return &c, nil
}

func (a *accessor) PutConflict(c syncer.Conflict) error {
	local, err := json.Marshal(c.Local)
	if err != nil {
		return errors.Wrap(err, "encoding local copy")
	}
	remote, err := json.Marshal(c.Remote)
	if err != nil {
		return errors.Wrap(err, "encoding remote copy")
	}

	_, err = a.db.Exec(`INSERT INTO conflicts (id, local, remote, reason, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			local = excluded.local,
			remote = excluded.remote,
			reason = excluded.reason`,
		c.ID, string(local), string(remote), c.Reason, c.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "saving conflict %s", c.ID)
	}

	return nil
}

func (a *accessor) DeleteConflict(id string) error {
	if _, err := a.db.Exec("DELETE FROM conflicts WHERE id = ?", id); err != nil {
		return errors.Wrapf(err, "deleting conflict %s", id)
	}

	return nil
}

func (a *accessor) ListConflicts() ([]syncer.Conflict, error) {
	rows, err := a.db.Query("SELECT id, local, remote, reason, created_at FROM conflicts ORDER BY created_at, id")
	if err != nil {
		return nil, errors.Wrap(err, "querying conflicts")
	}
	defer rows.Close()

	ret := []syncer.Conflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning conflict")
		}
		ret = append(ret, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating conflicts")
	}

	return ret, nil
}

func (a *accessor) GetCursor() (int64, error) {
	v, err := GetSystemOr(a.db, consts.SystemLastSyncedTo, "0")
	if err != nil {
		return 0, err
	}

	ret, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", consts.SystemLastSyncedTo)
	}

	return ret, nil
}

func (a *accessor) SetCursor(v int64) error {
	return UpsertSystem(a.db, consts.SystemLastSyncedTo, strconv.FormatInt(v, 10))
}

func (s *Store) reader() *accessor {
	return &accessor{db: s.db}
}

// Update runs fn in a transaction. It must not be called from within fn.
func (s *Store) Update(fn func(tx syncer.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	a := &accessor{db: tx}
	if err := fn(a); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	if a.dirtied {
		select {
		case s.changes <- struct{}{}:
		default:
		}
	}

	return nil
}

// Changes receives a value after an update that wrote a dirty record.
// Notifications coalesce while nobody is receiving.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Get returns the record of the id, or nil
func (s *Store) Get(id string) (*record.Record, error) {
	return s.reader().Get(id)
}

// Put saves the record
func (s *Store) Put(r record.Record) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.Put(r)
	})
}

// BulkPut saves the records in one transaction
func (s *Store) BulkPut(rs []record.Record) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.BulkPut(rs)
	})
}

// Delete removes the record and its base snapshot
func (s *Store) Delete(id string) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.Delete(id)
	})
}

// BulkDelete removes the records and their base snapshots in one transaction
func (s *Store) BulkDelete(ids []string) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.BulkDelete(ids)
	})
}

// Query returns the records matching the filter, most recently updated first
func (s *Store) Query(f syncer.Filter) ([]record.Record, error) {
	return s.reader().Query(f)
}

// FindByPrefix returns the live record whose id starts with the prefix
func (s *Store) FindByPrefix(prefix string) (record.Record, error) {
	return s.reader().findByPrefix(prefix)
}

// GetBase returns the base snapshot of the id, or nil
func (s *Store) GetBase(id string) (*record.Record, error) {
	return s.reader().GetBase(id)
}

// PutBase saves a base snapshot
func (s *Store) PutBase(r record.Record) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.PutBase(r)
	})
}

// GetConflict returns the pending conflict of the id, or nil
func (s *Store) GetConflict(id string) (*syncer.Conflict, error) {
	return s.reader().GetConflict(id)
}

// PutConflict saves a pending conflict
func (s *Store) PutConflict(c syncer.Conflict) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.PutConflict(c)
	})
}

// DeleteConflict removes a pending conflict
func (s *Store) DeleteConflict(id string) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.DeleteConflict(id)
	})
}

// ListConflicts returns the pending conflicts, oldest first
func (s *Store) ListConflicts() ([]syncer.Conflict, error) {
	return s.reader().ListConflicts()
}

// GetCursor returns the sync cursor
func (s *Store) GetCursor() (int64, error) {
	return s.reader().GetCursor()
}

// SetCursor saves the sync cursor
func (s *Store) SetCursor(v int64) error {
	return s.Update(func(tx syncer.Tx) error {
		return tx.SetCursor(v)
	})
}

// Credentials returns the sync credentials saved at login
func (s *Store) Credentials() (syncer.Credentials, error) {
	var ret syncer.Credentials

	encodedKey, err := GetSystemOr(s.db, consts.SystemEncryptionKey, "")
	if err != nil {
		return ret, err
	}
	if encodedKey != "" {
		key, err := crypt.DecodeKey(encodedKey)
		if err != nil {
			return ret, errors.Wrap(err, "decoding encryption key")
		}
		ret.Key = key
	}

	if ret.SyncToken, err = GetSystemOr(s.db, consts.SystemSyncToken, ""); err != nil {
		return ret, err
	}

	loggedIn, err := GetSystemOr(s.db, consts.SystemLoggedIn, "0")
	if err != nil {
		return ret, err
	}
	ret.LoggedIn = loggedIn == "1" && ret.Key != nil && ret.SyncToken != ""

	return ret, nil
}

// SetLoggedIn flags whether the saved session can be used for syncing
func (s *Store) SetLoggedIn(loggedIn bool) error {
	val := "0"
	if loggedIn {
		val = "1"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return UpsertSystem(s.db, consts.SystemLoggedIn, val)
}
