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
	"encoding/json"

	"github.com/google/go-cmp/cmp"
	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/merge"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
)

// round holds the state of one sync round
type round struct {
	key    crypt.Key
	cursor int64
	now    int64

	// sent are the records as they were when the request was built
	sent map[string]record.Record
	// deferred are the ids of dirty records left out of the request
	deferred map[string]bool

	pulled    []record.Record
	conflicts []record.Record

	result Result
}

func (o *Orchestrator) prepare(creds Credentials) (*round, wire.SyncRequest, error) {
	var req wire.SyncRequest

	cursor, err := o.store.GetCursor()
	if err != nil {
		return nil, req, errors.Wrap(err, "getting the sync cursor")
	}
	dirty, err := o.store.Query(Filter{State: record.StateDirty, IncludeDeleted: true})
	if err != nil {
		return nil, req, errors.Wrap(err, "finding dirty records")
	}
	conflicts, err := o.store.ListConflicts()
	if err != nil {
		return nil, req, errors.Wrap(err, "listing conflicts")
	}

	pending := map[string]bool{}
	for _, c := range conflicts {
		pending[c.ID] = true
	}

	rd := &round{
		key:      creds.Key,
		cursor:   cursor,
		sent:     map[string]record.Record{},
		deferred: map[string]bool{},
	}
	req = wire.SyncRequest{
		LastSyncedTo: cursor,
		SyncToken:    creds.SyncToken,
		Puts:         []wire.Put{},
	}

	size := wire.RequestOverhead
	for _, r := range dirty {
		if pending[r.ID] {
			continue
		}
		if !r.IsDeleted() && (r.Payload == nil || r.Payload.IsEmpty()) {
			continue
		}
		if len(req.Puts) == wire.MaxPuts {
			rd.result.Remaining++
			rd.deferred[r.ID] = true
			continue
		}

		p, err := EncodeRecord(creds.Key, r)
		if err != nil {
			log.Warnf("skipping %s: %s\n", r.ID, err.Error())
			rd.result.Failed = append(rd.result.Failed, r.ID)
			rd.deferred[r.ID] = true
			continue
		}

		// the first put always goes so that an oversized record cannot stall the queue
		if len(req.Puts) > 0 && size+p.Size() > o.maxBytes {
			rd.result.Remaining++
			rd.deferred[r.ID] = true
			continue
		}

		req.Puts = append(req.Puts, p)
		size += p.Size()
		rd.sent[r.ID] = r
	}

	return rd, req, nil
}

func (o *Orchestrator) send(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error) {
	if log.IsDebug() {
		b, err := json.Marshal(redact(req.Puts))
		if err == nil {
			log.Debug("sync request: last_synced_to=%d puts=%s\n", req.LastSyncedTo, string(b))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.transport.Sync(ctx, req)
	if err != nil {
		if client.IsUnauthorized(err) {
			if err := o.store.SetLoggedIn(false); err != nil {
				log.Errorf("marking the session logged out: %s\n", err.Error())
			}
			return resp, ErrUnauthorized
		}
		if client.IsQuotaExceeded(err) {
			return resp, ErrQuotaExceeded
		}

		return resp, errors.Wrap(err, "sending the sync request")
	}

	log.Debug("sync response: puts=%d conflicts=%d synced_to=%d\n", len(resp.Puts), len(resp.Conflicts), resp.SyncedTo)

	return resp, nil
}

// decode decrypts the response. A record that cannot be decrypted is
// reported and skipped without failing the round.
func (rd *round) decode(resp wire.SyncResponse) {
	for _, p := range resp.Puts {
		r, err := DecodeRecord(rd.key, p)
		if err != nil {
			log.Warnf("skipping %s: %s\n", p.ID, err.Error())
			rd.result.Unreadable = append(rd.result.Unreadable, p.ID)
			continue
		}

		rd.pulled = append(rd.pulled, r)
	}

	for _, p := range resp.Conflicts {
		r, err := DecodeRecord(rd.key, p)
		if err != nil {
			log.Warnf("skipping conflict %s: %s\n", p.ID, err.Error())
			rd.result.Unreadable = append(rd.result.Unreadable, p.ID)
			continue
		}

		rd.conflicts = append(rd.conflicts, r)
	}
}

func (o *Orchestrator) syncOnce(ctx context.Context) (Result, error) {
	creds, err := o.store.Credentials()
	if err != nil {
		return Result{}, errors.Wrap(err, "reading credentials")
	}
	if !creds.LoggedIn {
		return Result{}, ErrNotLoggedIn
	}

	rd, req, err := o.prepare(creds)
	if err != nil {
		return Result{}, err
	}

	resp, err := o.send(ctx, req)
	if err != nil {
		return Result{}, err
	}

	rd.decode(resp)
	rd.now = clock.Millis(o.clock)

	conflicted := map[string]bool{}
	for _, p := range resp.Conflicts {
		conflicted[p.ID] = true
	}

	err = o.store.Update(func(tx Tx) error {
		if err := rd.applySent(tx, conflicted); err != nil {
			return errors.Wrap(err, "applying accepted changes")
		}
		if err := rd.applyPulled(tx); err != nil {
			return errors.Wrap(err, "applying pulled changes")
		}
		if err := rd.applyConflicts(tx); err != nil {
			return errors.Wrap(err, "applying conflicts")
		}

		if resp.SyncedTo > rd.cursor {
			if err := tx.SetCursor(resp.SyncedTo); err != nil {
				return errors.Wrap(err, "advancing the sync cursor")
			}
		}

		return expungeTombstones(tx)
	})
	if err != nil {
		return Result{}, err
	}

	rd.result.SyncedTo = resp.SyncedTo
	if rd.cursor > rd.result.SyncedTo {
		rd.result.SyncedTo = rd.cursor
	}

	return rd.result, nil
}

// putSynced stores a record acknowledged by the server along with its base
// snapshot. Synced tombstones are dropped.
func putSynced(tx Tx, r record.Record) error {
	if r.IsDeleted() {
		return tx.Delete(r.ID)
	}

	r = r.Synced()
	if err := tx.Put(r); err != nil {
		return err
	}

	return tx.PutBase(r)
}

// applySent marks the records the server accepted as synced. A record edited
// again while the request was in flight stays dirty above the accepted version.
func (rd *round) applySent(tx Tx, conflicted map[string]bool) error {
	for id, sent := range rd.sent {
		if conflicted[id] {
			continue
		}

		accepted := sent.Synced()
		rd.result.Pushed++

		current, err := tx.Get(id)
		if err != nil {
			return err
		}
		if current == nil || cmp.Equal(*current, sent) {
			if err := putSynced(tx, accepted); err != nil {
				return err
			}
			continue
		}

		log.Debug("%s changed during the sync\n", id)

		edited := current.Clone()
		edited.State = record.StateDirty
		edited.Version = accepted.Version + 1
		if err := tx.Put(edited); err != nil {
			return err
		}
		if !accepted.IsDeleted() {
			if err := tx.PutBase(accepted); err != nil {
				return err
			}
		}
	}

	return nil
}

// applyPulled applies the changes of other devices
func (rd *round) applyPulled(tx Tx) error {
	for _, pulled := range rd.pulled {
		if _, ok := rd.sent[pulled.ID]; ok {
			continue
		}

		c, err := tx.GetConflict(pulled.ID)
		if err != nil {
			return err
		}
		if c != nil {
			c.Remote = pulled
			if err := tx.PutConflict(*c); err != nil {
				return err
			}
			continue
		}

		// Deferred records are resubmitted later and merged against the
		// server copy then.
		if rd.deferred[pulled.ID] {
			continue
		}

		current, err := tx.Get(pulled.ID)
		if err != nil {
			return err
		}

		if current != nil && current.IsDirty() && current.UpdatedAt > pulled.UpdatedAt {
			log.Debug("keeping the local edit of %s made during the sync\n", pulled.ID)

			kept := current.Clone()
			if kept.Version <= pulled.Version {
				kept.Version = pulled.Version + 1
			}
			if err := tx.Put(kept); err != nil {
				return err
			}
			if !pulled.IsDeleted() {
				if err := tx.PutBase(pulled); err != nil {
					return err
				}
			}
			continue
		}

		if err := putSynced(tx, pulled); err != nil {
			return err
		}
		rd.result.Pulled++
	}

	return nil
}

// applyConflicts merges the local copies of the records the server rejected
// with the server copies
func (rd *round) applyConflicts(tx Tx) error {
	for _, remote := range rd.conflicts {
		current, err := tx.Get(remote.ID)
		if err != nil {
			return err
		}
		if current == nil || !current.IsDirty() {
			if err := putSynced(tx, remote); err != nil {
				return err
			}
			continue
		}

		base, err := tx.GetBase(remote.ID)
		if err != nil {
			return err
		}

		res := merge.Merge(base, *current, remote, rd.now)
		if res.Escalated {
			log.Debug("conflict on %s: %s\n", remote.ID, res.Reason)

			if err := tx.PutConflict(Conflict{
				ID:        remote.ID,
				Local:     *current,
				Remote:    remote,
				Reason:    res.Reason,
				CreatedAt: rd.now,
			}); err != nil {
				return err
			}
			rd.result.Conflicts = append(rd.result.Conflicts, remote.ID)
			continue
		}

		if err := tx.Put(res.Record); err != nil {
			return err
		}
		if !remote.IsDeleted() {
			if err := tx.PutBase(remote); err != nil {
				return err
			}
		}
		rd.result.Merged++
	}

	return nil
}

func expungeTombstones(tx Tx) error {
	synced, err := tx.Query(Filter{State: record.StateSynced, IncludeDeleted: true})
	if err != nil {
		return errors.Wrap(err, "finding synced records")
	}

	ids := []string{}
	for _, r := range synced {
		if r.IsDeleted() {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return errors.Wrap(tx.BulkDelete(ids), "expunging tombstones")
}
