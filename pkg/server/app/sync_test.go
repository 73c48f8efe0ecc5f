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
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/testutils"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
	"pgregory.net/rapid"
)

type notification struct {
	UserID    int
	SessionID int
	Changed   []string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *fakeNotifier) Notify(userID int, excludingSessionID int, changedIDs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, notification{userID, excludingSessionID, changedIDs})
}

func newSyncTest(t *testing.T) (App, database.User, *clock.Mock) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")

	c := clock.NewMock()
	a := NewTest()
	a.DB = db
	a.Clock = c

	return a, user, c
}

func mustSync(t *testing.T, a App, user database.User, req wire.SyncRequest) wire.SyncResponse {
	if req.SyncToken == "" {
		req.SyncToken = testutils.SyncToken
	}

	resp, err := a.SyncNotes(user, 1, req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "syncing"))
	}

	return resp
}

func mustGetRecord(t *testing.T, a App, id string) database.Record {
	var r database.Record
	testutils.MustExec(t, a.DB.Where("uuid = ?", id).First(&r), "finding record")

	return r
}

func putIDs(puts []wire.Put) []string {
	ret := []string{}
	for _, p := range puts {
		ret = append(ret, p.ID)
	}

	return ret
}

func TestSyncNotes_create(t *testing.T) {
	a, user, c := newSyncTest(t)
	id := testutils.MustUUID(t)

	p := testutils.UpsertPut(id, 3, 100, "Y2lwaGVy")
	resp := mustSync(t, a, user, wire.SyncRequest{Puts: []wire.Put{p}})

	now := clock.Millis(c)
	r := mustGetRecord(t, a, id)
	assert.Equal(t, r.Version, 1, "new records are stored at version 1")
	assert.Equal(t, *r.CipherText, "Y2lwaGVy", "cipher text mismatch")
	assert.Equal(t, r.ServersideUpdatedAt, now, "server time mismatch")

	assert.Equal(t, len(resp.Puts), 1, "echo count mismatch")
	assert.Equal(t, resp.Puts[0].Version, 1, "echo version mismatch")
	assert.Equal(t, len(resp.Conflicts), 0, "conflict count mismatch")
	assert.Equal(t, resp.SyncedTo, now, "synced_to mismatch")
}

func TestSyncNotes_classification(t *testing.T) {
	a, user, _ := newSyncTest(t)

	higher := testutils.MustUUID(t)
	retry := testutils.MustUUID(t)
	stale := testutils.MustUUID(t)
	deleted := testutils.MustUUID(t)

	testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: higher, CipherText: "b2xk", Version: 2, EditedOn: 10, ServerTS: 5})
	testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: retry, CipherText: "c2FtZQ==", Version: 2, EditedOn: 10, ServerTS: 5})
	testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: stale, CipherText: "c2VydmVy", Version: 2, EditedOn: 10, ServerTS: 5})
	testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: deleted, CipherText: "Z29uZQ==", Version: 1, EditedOn: 10, ServerTS: 5})

	resp := mustSync(t, a, user, wire.SyncRequest{
		LastSyncedTo: 5,
		Puts: []wire.Put{
			testutils.UpsertPut(higher, 3, 20, "bmV3"),
			testutils.UpsertPut(retry, 2, 10, "cmV0cnk="),
			testutils.UpsertPut(stale, 2, 30, "bG9jYWw="),
			testutils.DeletePut(deleted, 2, 40),
		},
	})

	assert.Equal(t, mustGetRecord(t, a, higher).Version, 3, "higher version should be accepted")
	assert.Equal(t, *mustGetRecord(t, a, higher).CipherText, "bmV3", "higher version content mismatch")

	r := mustGetRecord(t, a, retry)
	assert.Equal(t, r.Version, 2, "retry should not change the version")
	assert.Equal(t, *r.CipherText, "c2FtZQ==", "retry should not change the content")
	assert.Equal(t, r.ServersideUpdatedAt, int64(5), "retry should not touch the record")

	s := mustGetRecord(t, a, stale)
	assert.Equal(t, *s.CipherText, "c2VydmVy", "conflicting write must be discarded")

	d := mustGetRecord(t, a, deleted)
	assert.Equal(t, d.DeletedOn, int64(40), "deletion mismatch")
	assert.Equal(t, d.CipherText == nil, true, "tombstone should have no cipher text")

	assert.DeepEqual(t, putIDs(resp.Conflicts), []string{stale}, "conflicts mismatch")
	assert.Equal(t, *resp.Conflicts[0].CipherText, "c2VydmVy", "conflict should carry the stored copy")

	pulled := putIDs(resp.Puts)
	for _, id := range []string{higher, deleted} {
		assert.Equal(t, strings.Contains(strings.Join(pulled, ","), id), true, fmt.Sprintf("%s should be pulled", id))
	}
	assert.Equal(t, len(pulled), 2, "pull set mismatch")
}

func TestSyncNotes_deletePassThrough(t *testing.T) {
	a, user, _ := newSyncTest(t)
	id := testutils.MustUUID(t)

	resp := mustSync(t, a, user, wire.SyncRequest{Puts: []wire.Put{testutils.DeletePut(id, 1, 50)}})

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Record{}).Count(&count), "counting records")
	assert.Equal(t, count, int64(0), "pass-through deletions are not stored")
	assert.DeepEqual(t, putIDs(resp.Puts), []string{id}, "deletion should be echoed")
	assert.Equal(t, resp.SyncedTo, int64(0), "synced_to should not move")
}

func TestSyncNotes_syncToken(t *testing.T) {
	a, user, _ := newSyncTest(t)

	mustSync(t, a, user, wire.SyncRequest{SyncToken: testutils.SyncToken})

	var stored database.User
	testutils.MustExec(t, a.DB.First(&stored, user.ID), "finding user")
	assert.Equal(t, stored.SyncToken, testutils.SyncToken, "token should be adopted")

	id := testutils.MustUUID(t)
	_, err := a.SyncNotes(user, 1, wire.SyncRequest{
		SyncToken: testutils.OtherSyncToken,
		Puts:      []wire.Put{testutils.UpsertPut(id, 1, 10, "eA==")},
	})
	assert.EqualErr(t, err, ErrSyncTokenMismatch, "error mismatch")

	var count int64
	testutils.MustExec(t, a.DB.Model(&database.Record{}).Count(&count), "counting records")
	assert.Equal(t, count, int64(0), "no state change on token mismatch")
	testutils.MustExec(t, a.DB.First(&stored, user.ID), "finding user")
	assert.Equal(t, stored.SyncToken, testutils.SyncToken, "token must stay bound")
	assert.Equal(t, stored.LastChangeAt, int64(0), "change clock must not move")
}

func TestSyncNotes_quota(t *testing.T) {
	a, user, _ := newSyncTest(t)
	a.QuotaBytes = 100

	existing := testutils.MustUUID(t)
	testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: existing, CipherText: strings.Repeat("a", 99), Version: 1, ServerTS: 1})

	t.Run("growing past the quota fails the whole round", func(t *testing.T) {
		small := testutils.MustUUID(t)
		big := testutils.MustUUID(t)

		_, err := a.SyncNotes(user, 1, wire.SyncRequest{
			SyncToken: testutils.SyncToken,
			Puts: []wire.Put{
				testutils.UpsertPut(small, 1, 10, ""),
				testutils.UpsertPut(big, 1, 10, strings.Repeat("b", 10)),
			},
		})
		assert.EqualErr(t, err, ErrQuotaExceeded, "error mismatch")

		var count int64
		testutils.MustExec(t, a.DB.Model(&database.Record{}).Count(&count), "counting records")
		assert.Equal(t, count, int64(1), "no record should be committed")

		var stored database.User
		testutils.MustExec(t, a.DB.First(&stored, user.ID), "finding user")
		assert.Equal(t, stored.SyncToken, "", "token binding should be rolled back")
	})

	t.Run("shrinking is allowed", func(t *testing.T) {
		a.QuotaBytes = 50

		resp := mustSync(t, a, user, wire.SyncRequest{
			LastSyncedTo: 1,
			Puts:         []wire.Put{testutils.UpsertPut(existing, 2, 10, strings.Repeat("a", 60))},
		})

		assert.Equal(t, len(resp.Puts), 1, "write should be accepted")
		assert.Equal(t, mustGetRecord(t, a, existing).Version, 2, "version mismatch")
	})
}

func TestSyncNotes_pullCompleteness(t *testing.T) {
	a, user, c := newSyncTest(t)

	ids := []string{testutils.MustUUID(t), testutils.MustUUID(t), testutils.MustUUID(t)}
	for i, id := range ids {
		testutils.SetupRecord(a.DB, user, testutils.RecordOptions{UUID: id, CipherText: "eA==", Version: 1, ServerTS: int64(10 * (i + 1))})
	}

	resp := mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: 10})
	assert.DeepEqual(t, putIDs(resp.Puts), ids[1:], "pull set mismatch")
	assert.Equal(t, resp.SyncedTo, int64(30), "synced_to mismatch")

	resp = mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: resp.SyncedTo})
	assert.Equal(t, len(resp.Puts), 0, "nothing changed after the cursor")
	assert.Equal(t, resp.SyncedTo, int64(30), "synced_to should not move")

	// a write by another device lands strictly after the cursor
	other := testutils.MustUUID(t)
	mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: 30, Puts: []wire.Put{testutils.UpsertPut(other, 1, 5, "eQ==")}})

	resp = mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: 30})
	assert.DeepEqual(t, putIDs(resp.Puts), []string{other}, "pull set mismatch")
	assert.Equal(t, resp.SyncedTo, clock.Millis(c), "synced_to mismatch")
}

func TestSyncNotes_changeClockIsStrictlyMonotonic(t *testing.T) {
	a, user, c := newSyncTest(t)
	first, second := testutils.MustUUID(t), testutils.MustUUID(t)

	r1 := mustSync(t, a, user, wire.SyncRequest{Puts: []wire.Put{testutils.UpsertPut(first, 1, 1, "eA==")}})
	// the clock does not move between the two requests
	r2 := mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: r1.SyncedTo, Puts: []wire.Put{testutils.UpsertPut(second, 1, 1, "eA==")}})

	assert.Equal(t, r1.SyncedTo, clock.Millis(c), "first change time mismatch")
	assert.Equal(t, r2.SyncedTo, r1.SyncedTo+1, "second change time mismatch")
	assert.DeepEqual(t, putIDs(r2.Puts), []string{second}, "pull set mismatch")

	c.Advance(-time.Hour)
	third := testutils.MustUUID(t)
	r3 := mustSync(t, a, user, wire.SyncRequest{LastSyncedTo: r2.SyncedTo, Puts: []wire.Put{testutils.UpsertPut(third, 1, 1, "eA==")}})
	assert.Equal(t, r3.SyncedTo, r2.SyncedTo+1, "change time must not go backwards with the clock")
}

func TestSyncNotes_monotonicVersions(t *testing.T) {
	a, user, _ := newSyncTest(t)
	id := testutils.MustUUID(t)

	mustSync(t, a, user, wire.SyncRequest{Puts: []wire.Put{testutils.UpsertPut(id, 1, 1, "dg==")}})

	versions := []int{3, 2, 3, 5, 4, 1}
	accepted := []int{1}
	for i, v := range versions {
		resp := mustSync(t, a, user, wire.SyncRequest{Puts: []wire.Put{testutils.UpsertPut(id, v, int64(100+i), fmt.Sprintf("dg%d=", i))}})
		if len(resp.Conflicts) == 0 {
			accepted = append(accepted, mustGetRecord(t, a, id).Version)
		}
	}

	assert.DeepEqual(t, accepted, []int{1, 3, 5}, "accepted versions mismatch")
	for i := 1; i < len(accepted); i++ {
		if accepted[i] <= accepted[i-1] {
			t.Fatalf("versions are not strictly increasing: %v", accepted)
		}
	}
}

func TestSyncNotes_notify(t *testing.T) {
	a, user, _ := newSyncTest(t)
	n := &fakeNotifier{}
	a.Notifier = n

	id := testutils.MustUUID(t)
	_, err := a.SyncNotes(user, 42, wire.SyncRequest{
		SyncToken: testutils.SyncToken,
		Puts:      []wire.Put{testutils.UpsertPut(id, 1, 1, "eA==")},
	})
	assert.NilErr(t, err, "syncing")

	// no changes, no notification
	_, err = a.SyncNotes(user, 42, wire.SyncRequest{SyncToken: testutils.SyncToken})
	assert.NilErr(t, err, "syncing")

	assert.Equal(t, len(n.calls), 1, "notification count mismatch")
	assert.DeepEqual(t, n.calls[0], notification{user.ID, 42, []string{id}}, "notification mismatch")
}

func TestSyncNotes_invalidRequest(t *testing.T) {
	a, user, _ := newSyncTest(t)

	_, err := a.SyncNotes(user, 1, wire.SyncRequest{SyncToken: "short"})

	var verr *wire.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func genPut(t *rapid.T, id string) wire.Put {
	v := rapid.IntRange(1, 5).Draw(t, "version")
	updatedAt := rapid.Int64Range(1, 3).Draw(t, "updatedAt")
	if rapid.Bool().Draw(t, "deleted") {
		return testutils.DeletePut(id, v, updatedAt)
	}

	return testutils.UpsertPut(id, v, updatedAt, rapid.SampledFrom([]string{"YQ==", "Yg=="}).Draw(t, "cipher"))
}

func TestClassify_noSilentOverwrite(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := "2b3b1a6e-5d0a-4a8c-9c1f-8e0b6f8b5c11"
		p := genPut(t, id)

		var stored *database.Record
		if rapid.Bool().Draw(t, "exists") {
			sp := genPut(t, id)
			stored = &database.Record{
				UUID:       id,
				Type:       sp.Type,
				AddedOn:    sp.CreatedAt,
				EditedOn:   sp.UpdatedAt,
				CipherText: sp.CipherText,
				IV:         sp.IV,
				Version:    sp.Version,
				DeletedOn:  deletedOn(sp),
			}
		}

		v := classify(stored, p)

		switch {
		case stored == nil && p.IsDeleted():
			if v != verdictPassThrough {
				t.Fatalf("unknown deletion should pass through, got %v", v)
			}
		case stored == nil || p.Version > stored.Version:
			if v != verdictAccept {
				t.Fatalf("expected accept, got %v", v)
			}
		case sameAsStored(*stored, p):
			if v != verdictNoop {
				t.Fatalf("expected no-op, got %v", v)
			}
		default:
			if v != verdictConflict {
				t.Fatalf("stale write must conflict, got %v", v)
			}
		}
	})
}
