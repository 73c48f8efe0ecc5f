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

package app

import (
	"crypto/subtle"

	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/inkvault/inkvault/pkg/server/presenters"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// verdict is the classification of an incoming put
type verdict int

const (
	verdictAccept verdict = iota
	verdictNoop
	verdictConflict
	verdictPassThrough
)

// classify decides what to do with an incoming put given the stored copy,
// which is nil if the server has never seen the id
func classify(stored *database.Record, p wire.Put) verdict {
	if stored == nil {
		if p.IsDeleted() {
			return verdictPassThrough
		}

		return verdictAccept
	}

	if p.Version > stored.Version {
		return verdictAccept
	}
	if sameAsStored(*stored, p) {
		return verdictNoop
	}

	return verdictConflict
}

func deletedOn(p wire.Put) int64 {
	if p.DeletedAt == nil {
		return 0
	}

	return *p.DeletedAt
}

// sameAsStored returns true if the put is a retry of the write that produced
// the stored record. Ciphertexts are compared by presence only because a
// retried encryption yields a different iv.
func sameAsStored(r database.Record, p wire.Put) bool {
	return r.Type == p.Type &&
		r.AddedOn == p.CreatedAt &&
		r.EditedOn == p.UpdatedAt &&
		r.DeletedOn == deletedOn(p) &&
		r.Version == p.Version &&
		(r.CipherText != nil) == (p.CipherText != nil)
}

// reconciliation holds the state of one sync request inside its transaction
type reconciliation struct {
	tx      *gorm.DB
	user    database.User
	changed []string
	resp    wire.SyncResponse
}

func (r *reconciliation) storedRecords(ids []string) (map[string]*database.Record, error) {
	ret := map[string]*database.Record{}
	if len(ids) == 0 {
		return ret, nil
	}

	var records []database.Record
	if err := r.tx.Where("user_id = ? AND uuid IN (?)", r.user.ID, ids).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "finding stored records")
	}
	for i := range records {
		ret[records[i].UUID] = &records[i]
	}

	return ret, nil
}

func (r *reconciliation) usage() (int64, error) {
	var total int64
	err := r.tx.Model(&database.Record{}).
		Where("user_id = ? AND deleted_on = 0", r.user.ID).
		Select("COALESCE(SUM(LENGTH(cipher_text)), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, errors.Wrap(err, "computing storage usage")
	}

	return total, nil
}

// write applies an accepted put at the given server time
func (r *reconciliation) write(stored *database.Record, p wire.Put, ts int64) error {
	if stored == nil {
		rec := database.Record{
			UserID:              r.user.ID,
			UUID:                p.ID,
			Type:                p.Type,
			AddedOn:             p.CreatedAt,
			EditedOn:            p.UpdatedAt,
			CipherText:          p.CipherText,
			IV:                  p.IV,
			Version:             1,
			ServersideUpdatedAt: ts,
		}
		if err := r.tx.Create(&rec).Error; err != nil {
			return errors.Wrapf(err, "inserting record %s", p.ID)
		}

		return nil
	}

	err := r.tx.Model(stored).Select(
		"type", "added_on", "edited_on", "cipher_text", "iv", "version", "deleted_on", "serverside_updated_at",
	).Updates(database.Record{
		Type:                p.Type,
		AddedOn:             p.CreatedAt,
		EditedOn:            p.UpdatedAt,
		CipherText:          p.CipherText,
		IV:                  p.IV,
		Version:             p.Version,
		DeletedOn:           deletedOn(p),
		ServersideUpdatedAt: ts,
	}).Error
	if err != nil {
		return errors.Wrapf(err, "updating record %s", p.ID)
	}

	return nil
}

func (r *reconciliation) verifyToken(token string) error {
	if r.user.SyncToken == "" {
		res := r.tx.Model(&database.User{}).
			Where("id = ? AND sync_token = ''", r.user.ID).
			Update("sync_token", token)
		if err := res.Error; err != nil {
			return errors.Wrap(err, "binding sync token")
		}
		if res.RowsAffected != 1 {
			return ErrSyncTokenMismatch
		}

		r.user.SyncToken = token
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(r.user.SyncToken), []byte(token)) != 1 {
		return ErrSyncTokenMismatch
	}

	return nil
}

// changeTime returns the server time for the writes of this request. It is
// strictly greater than any time previously assigned for the account.
func (r *reconciliation) changeTime(now int64) int64 {
	if now <= r.user.LastChangeAt {
		return r.user.LastChangeAt + 1
	}

	return now
}

func (r *reconciliation) run(req wire.SyncRequest, now int64, quota int64) error {
	if err := r.tx.Where("id = ?", r.user.ID).First(&r.user).Error; err != nil {
		return errors.Wrap(err, "reading user")
	}
	if err := r.verifyToken(req.SyncToken); err != nil {
		return err
	}

	before, err := r.usage()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(req.Puts))
	for _, p := range req.Puts {
		ids = append(ids, p.ID)
	}
	stored, err := r.storedRecords(ids)
	if err != nil {
		return err
	}

	ts := r.changeTime(now)
	conflicted := map[string]bool{}
	passThrough := []wire.Put{}

	for _, p := range req.Puts {
		s := stored[p.ID]

		switch classify(s, p) {
		case verdictAccept:
			if err := r.write(s, p, ts); err != nil {
				return err
			}
			r.changed = append(r.changed, p.ID)
		case verdictConflict:
			conflicted[p.ID] = true
			r.resp.Conflicts = append(r.resp.Conflicts, presenters.PresentRecord(*s))
		case verdictPassThrough:
			passThrough = append(passThrough, p)
		}
	}

	if len(r.changed) > 0 {
		after, err := r.usage()
		if err != nil {
			return err
		}
		if after > quota && after > before {
			log.WithFields(log.Fields{
				"user_id": r.user.ID,
				"usage":   after,
				"quota":   quota,
			}).Info("Sync rejected by storage quota.")

			return ErrQuotaExceeded
		}

		if err := r.tx.Model(&database.User{}).Where("id = ?", r.user.ID).Update("last_change_at", ts).Error; err != nil {
			return errors.Wrap(err, "advancing change clock")
		}
	}

	var pulled []database.Record
	if err := r.tx.Where("user_id = ? AND serverside_updated_at > ?", r.user.ID, req.LastSyncedTo).
		Order("serverside_updated_at ASC, id ASC").
		Find(&pulled).Error; err != nil {
		return errors.Wrap(err, "finding changed records")
	}

	r.resp.SyncedTo = req.LastSyncedTo
	for _, rec := range pulled {
		if rec.ServersideUpdatedAt > r.resp.SyncedTo {
			r.resp.SyncedTo = rec.ServersideUpdatedAt
		}
		if conflicted[rec.UUID] {
			continue
		}

		r.resp.Puts = append(r.resp.Puts, presenters.PresentRecord(rec))
	}
	r.resp.Puts = append(r.resp.Puts, passThrough...)

	return nil
}

// SyncNotes reconciles the puts of a client against the records of the
// user in one serializable transaction and returns the changes the client
// has to pull. Other sessions of the user are notified after commit.
func (a *App) SyncNotes(user database.User, sessionID int, req wire.SyncRequest) (wire.SyncResponse, error) {
	if err := req.Validate(); err != nil {
		return wire.SyncResponse{}, err
	}

	var r *reconciliation
	err := a.runSerializable(func(tx *gorm.DB) error {
		r = &reconciliation{
			tx:   tx,
			user: user,
			resp: wire.SyncResponse{
				Puts:      []wire.Put{},
				Conflicts: []wire.Put{},
			},
		}

		return r.run(req, clock.Millis(a.Clock), a.QuotaBytes)
	})
	if err != nil {
		return wire.SyncResponse{}, err
	}

	log.WithFields(log.Fields{
		"user_id":   user.ID,
		"puts":      len(req.Puts),
		"accepted":  len(r.changed),
		"conflicts": len(r.resp.Conflicts),
		"pulled":    len(r.resp.Puts),
		"synced_to": r.resp.SyncedTo,
	}).Debug("Synced.")

	if a.Notifier != nil && len(r.changed) > 0 {
		a.Notifier.Notify(user.ID, sessionID, r.changed)
	}

	return r.resp, nil
}
