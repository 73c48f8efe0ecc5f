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
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/inkvault/inkvault/pkg/server/context"
	mw "github.com/inkvault/inkvault/pkg/server/middleware"
	"github.com/inkvault/inkvault/pkg/server/notify"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
)

const (
	defaultEventsTimeout = 25 * time.Second
	maxEventsTimeout     = 60 * time.Second
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

// eventsQuery is the query of GET /api/v3/events
type eventsQuery struct {
	// Timeout is the number of seconds to wait for a change
	Timeout int `schema:"timeout"`
}

func (q eventsQuery) duration() (time.Duration, error) {
	if q.Timeout < 0 {
		return 0, errors.New("timeout must not be negative")
	}
	if q.Timeout == 0 {
		return defaultEventsTimeout, nil
	}

	d := time.Duration(q.Timeout) * time.Second
	if d > maxEventsTimeout {
		d = maxEventsTimeout
	}

	return d, nil
}

// NewEvents creates a new Events controller
func NewEvents(hub *notify.Hub) *Events {
	return &Events{hub: hub}
}

// Events is a controller that lets clients wait for the changes committed
// by the other sessions of their account
type Events struct {
	hub *notify.Hub
}

// Wait handles GET /api/v3/events. It responds as soon as another session
// commits a change, or with an empty list when the timeout elapses.
func (e *Events) Wait(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	session := context.Session(r.Context())
	if user == nil || session == nil {
		mw.RespondUnauthorized(w)
		return
	}

	var q eventsQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		mw.DoError(w, "decoding query", err, http.StatusBadRequest)
		return
	}
	timeout, err := q.duration()
	if err != nil {
		mw.DoError(w, "validating query", err, http.StatusBadRequest)
		return
	}

	sub := e.hub.Subscribe(user.ID, session.ID)
	defer sub.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	resp := wire.EventsResponse{Changed: []string{}}
	select {
	case ev := <-sub.C():
		resp.Changed = ev.Changed
	case <-timer.C:
	case <-r.Context().Done():
		return
	}

	mw.RespondJSON(w, http.StatusOK, resp)
}
