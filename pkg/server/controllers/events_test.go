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

package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/notify"
	"github.com/inkvault/inkvault/pkg/server/testutils"
	"github.com/inkvault/inkvault/pkg/wire"
)

func TestEvents(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")
	listener := testutils.SetupSession(db, user)
	writer := testutils.SetupSession(db, user)

	hub := notify.NewHub()
	a := app.NewTest()
	a.DB = db
	a.Notifier = hub
	server := MustNewServer(t, &a)
	defer server.Close()

	id := testutils.MustUUID(t)

	type result struct {
		status int
		body   wire.EventsResponse
	}
	done := make(chan result, 1)
	go func() {
		req := testutils.MakeReq(server.URL, "GET", "/api/v3/events?timeout=10", "")
		testutils.SetReqAuthHeader(req, listener)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			done <- result{}
			return
		}

		defer res.Body.Close()

		var body wire.EventsResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			done <- result{}
			return
		}
		done <- result{status: res.StatusCode, body: body}
	}()

	// wait for the long poll to subscribe
	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers(user.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("listener never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	req := testutils.MakeJSONReq(t, server.URL, "POST", "/api/v3/sync", wire.SyncRequest{
		SyncToken: testutils.SyncToken,
		Puts:      []wire.Put{testutils.UpsertPut(id, 1, 10, "eA==")},
	})
	testutils.SetReqAuthHeader(req, writer)
	res := testutils.HTTPDo(t, req)
	assert.Equal(t, res.StatusCode, http.StatusOK, "sync status mismatch")

	select {
	case r := <-done:
		assert.Equal(t, r.status, http.StatusOK, "events status mismatch")
		assert.DeepEqual(t, r.body.Changed, []string{id}, "changed mismatch")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the event")
	}
}

func TestEvents_timeout(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")

	a := app.NewTest()
	a.DB = db
	server := MustNewServer(t, &a)
	defer server.Close()

	req := testutils.MakeReq(server.URL, "GET", "/api/v3/events?timeout=1", "")
	res := testutils.HTTPAuthDo(t, db, req, user)
	assert.Equal(t, res.StatusCode, http.StatusOK, "status code mismatch")

	var body wire.EventsResponse
	testutils.MustDecodeJSON(t, res, &body)
	assert.DeepEqual(t, body.Changed, []string{}, "changed mismatch")
}

func TestEvents_invalidQuery(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")

	a := app.NewTest()
	a.DB = db
	server := MustNewServer(t, &a)
	defer server.Close()

	for _, q := range []string{"timeout=-1", "timeout=soon"} {
		req := testutils.MakeReq(server.URL, "GET", "/api/v3/events?"+q, "")
		res := testutils.HTTPAuthDo(t, db, req, user)
		assert.Equal(t, res.StatusCode, http.StatusBadRequest, "status code mismatch for "+q)
	}
}
