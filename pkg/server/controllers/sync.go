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

	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/context"
	"github.com/inkvault/inkvault/pkg/server/log"
	mw "github.com/inkvault/inkvault/pkg/server/middleware"
	"github.com/inkvault/inkvault/pkg/wire"
)

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{app: app}
}

// Sync is a sync controller.
type Sync struct {
	app *app.App
}

// Sync handles POST /api/v3/sync
func (s *Sync) Sync(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	session := context.Session(r.Context())
	if user == nil || session == nil {
		mw.RespondUnauthorized(w)
		return
	}

	var req wire.SyncRequest
	if err := parseRequestData(w, r, &req); err != nil {
		handleJSONError(w, err, "parsing sync request")
		return
	}

	resp, err := s.app.SyncNotes(*user, session.ID, req)
	if err != nil {
		log.WithFields(log.Fields{
			"user_id": user.ID,
			"puts":    len(req.Puts),
		}).Debug("Sync failed.")

		handleJSONError(w, err, "syncing")
		return
	}

	mw.RespondJSON(w, http.StatusOK, resp)
}
