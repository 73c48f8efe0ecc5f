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

package cmd

import (
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/testutils"
)

func TestPurgeSessions(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	user := testutils.SetupUserData(db, "alice@example.com", "pass1234")

	a := app.NewTest()
	a.DB = db

	live := database.Session{UserID: user.ID, Key: "live", ExpiresAt: a.Clock.Now().Add(time.Hour)}
	expired := database.Session{UserID: user.ID, Key: "expired", ExpiresAt: a.Clock.Now().Add(-time.Hour)}
	testutils.MustExec(t, db.Save(&live), "preparing live session")
	testutils.MustExec(t, db.Save(&expired), "preparing expired session")

	assert.NilErr(t, purgeSessions(&a), "purging sessions")

	var sessions []database.Session
	testutils.MustExec(t, db.Find(&sessions), "finding sessions")
	assert.Equal(t, len(sessions), 1, "session count mismatch")
	assert.Equal(t, sessions[0].Key, "live", "remaining session mismatch")
}

func TestStartJobs(t *testing.T) {
	db := testutils.InitMemoryDB(t)

	a := app.NewTest()
	a.DB = db

	c, err := startJobs(&a)
	assert.NilErr(t, err, "starting jobs")
	defer c.Stop()

	assert.Equal(t, len(c.Entries()), len(jobs), "entry count mismatch")
}

func TestCheckpoint(t *testing.T) {
	db := openDB(t, t.TempDir()+"/test.db")

	a := app.NewTest()
	a.DB = db

	assert.NilErr(t, checkpoint(&a), "checkpointing")
}
