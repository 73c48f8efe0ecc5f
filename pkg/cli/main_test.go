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

package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/testutils"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/dirs"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

var binaryName = "test-inkvault"

// setupTestEnv creates a unique test directory for parallel test execution
func setupTestEnv(t *testing.T) (string, testutils.RunInkvaultCmdOptions) {
	testDir := t.TempDir()
	opts := testutils.RunInkvaultCmdOptions{
		Env: []string{
			fmt.Sprintf("INKVAULT_HOME=%s", testDir),
		},
	}
	return testDir, opts
}

func TestMain(m *testing.M) {
	if err := exec.Command("go", "build", "-o", binaryName).Run(); err != nil {
		log.Print(errors.Wrap(err, "building a binary").Error())
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func mustGet(t *testing.T, s *database.Store, id string) record.Record {
	r, err := s.Get(id)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "getting %s", id))
	}
	if r == nil {
		t.Fatalf("record %s not found", id)
	}

	return *r
}

func TestInit(t *testing.T) {
	testDir, opts := setupTestEnv(t)

	// run an arbitrary command "view" due to https://github.com/spf13/cobra/issues/1056
	testutils.RunInkvaultCmd(t, opts, binaryName, "view")

	appDir := filepath.Join(testDir, dirs.AppName)
	db := testutils.MustOpenDatabase(t, filepath.Join(appDir, consts.DBFileName))

	ok, err := utils.FileExists(filepath.Join(appDir, consts.ConfigFilename))
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking if the config exists"))
	}
	if !ok {
		t.Errorf("config file was not initialized")
	}

	for _, table := range []string{"records", "base_snapshots", "system", "conflicts"} {
		var count int
		database.MustScan(t, "counting "+table,
			db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = ? AND name = ?", "table", table), &count)
		assert.Equal(t, count, 1, table+" table count mismatch")
	}

	var lastSyncedTo, lastSyncAt, loggedIn string
	database.MustScan(t, "scanning last synced to",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemLastSyncedTo), &lastSyncedTo)
	database.MustScan(t, "scanning last sync at",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemLastSyncAt), &lastSyncAt)
	database.MustScan(t, "scanning logged in",
		db.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemLoggedIn), &loggedIn)

	assert.Equal(t, lastSyncedTo, "0", "last synced to mismatch")
	assert.Equal(t, lastSyncAt, "0", "last sync at mismatch")
	assert.Equal(t, loggedIn, "0", "logged in mismatch")
}

func TestAddRecord(t *testing.T) {
	t.Run("content flag", func(t *testing.T) {
		_, opts := setupTestEnv(t)
		db, dbPath := database.InitTestFileDB(t)

		testutils.RunInkvaultCmd(t, opts, binaryName, "--dbPath", dbPath, "add", "-t", "js", "-c", "foo")

		s := database.NewStore(db)
		rs, err := s.Query(syncer.Filter{})
		assert.NilErr(t, err, "querying")
		assert.Equalf(t, len(rs), 1, "record count mismatch")

		r := rs[0]
		assert.Equal(t, r.Kind, record.KindNote, "kind mismatch")
		assert.Equal(t, r.Payload.Title, "js", "title mismatch")
		assert.Equal(t, r.Payload.Content.Text, "foo", "content mismatch")
		assert.Equal(t, r.IsDirty(), true, "a new record should be dirty")
		assert.Equal(t, r.Version, 1, "version mismatch")
		assert.NotEqual(t, r.CreatedAt, int64(0), "created_at should be set")
	})

	t.Run("piped content", func(t *testing.T) {
		_, opts := setupTestEnv(t)
		db, dbPath := database.InitTestFileDB(t)

		testutils.MustWaitInkvaultCmd(t, opts, testutils.UserContent, binaryName, "--dbPath", dbPath, "add")

		var count int
		database.MustScan(t, "counting records", db.QueryRow("SELECT count(*) FROM records"), &count)
		assert.Equalf(t, count, 1, "record count mismatch")
	})

	t.Run("todo", func(t *testing.T) {
		_, opts := setupTestEnv(t)
		db, dbPath := database.InitTestFileDB(t)

		testutils.RunInkvaultCmd(t, opts, binaryName, "--dbPath", dbPath, "add", "-k", "todo", "-c", "- [ ] milk\n- [x] eggs")

		s := database.NewStore(db)
		rs, err := s.Query(syncer.Filter{Kind: record.KindTodo})
		assert.NilErr(t, err, "querying")
		assert.Equalf(t, len(rs), 1, "record count mismatch")

		items := rs[0].Payload.Content.Items
		assert.Equalf(t, len(items), 2, "item count mismatch")
		assert.Equal(t, items[0].Text, "milk", "item 0 text mismatch")
		assert.Equal(t, items[0].Done, false, "item 0 done mismatch")
		assert.Equal(t, items[1].Text, "eggs", "item 1 text mismatch")
		assert.Equal(t, items[1].Done, true, "item 1 done mismatch")
	})
}

func TestEditRecord(t *testing.T) {
	_, opts := setupTestEnv(t)
	db, dbPath := database.InitTestFileDB(t)
	s := database.NewStore(db)
	testutils.Setup2(t, s)

	testutils.RunInkvaultCmd(t, opts, binaryName, "--dbPath", dbPath, "edit", utils.ShortID(testutils.NoteID1), "-c", "foo bar")

	n1 := mustGet(t, s, testutils.NoteID1)
	assert.Equal(t, n1.Payload.Content.Text, "foo bar", "n1 content mismatch")
	assert.Equal(t, n1.IsDirty(), true, "n1 should be dirty")
	assert.Equal(t, n1.Version, 2, "n1 version mismatch")

	n2 := mustGet(t, s, testutils.NoteID2)
	assert.Equal(t, n2.Payload.Content.Text, "n2 body edited", "n2 should be untouched")
}

func TestRemoveRecord(t *testing.T) {
	testCases := []struct {
		yesFlag bool
	}{
		{
			yesFlag: false,
		},
		{
			yesFlag: true,
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("--yes=%t", tc.yesFlag), func(t *testing.T) {
			_, opts := setupTestEnv(t)
			db, dbPath := database.InitTestFileDB(t)
			s := database.NewStore(db)
			testutils.Setup2(t, s)

			id := utils.ShortID(testutils.NoteID1)
			if tc.yesFlag {
				testutils.RunInkvaultCmd(t, opts, binaryName, "--dbPath", dbPath, "remove", "-y", id)
			} else {
				testutils.MustWaitInkvaultCmd(t, opts, testutils.ConfirmRemoveRecord, binaryName, "--dbPath", dbPath, "remove", id)
			}

			var count int
			database.MustScan(t, "counting records", db.QueryRow("SELECT count(*) FROM records"), &count)
			assert.Equalf(t, count, 3, "a synced record should stay as a tombstone")

			n1 := mustGet(t, s, testutils.NoteID1)
			assert.Equal(t, n1.IsDeleted(), true, "n1 should be deleted")
			assert.Equal(t, n1.IsDirty(), true, "n1 should be dirty")

			todo := mustGet(t, s, testutils.TodoID)
			assert.Equal(t, todo.IsDeleted(), false, "todo should be untouched")
		})
	}

	t.Run("cancel", func(t *testing.T) {
		_, opts := setupTestEnv(t)
		db, dbPath := database.InitTestFileDB(t)
		s := database.NewStore(db)
		testutils.Setup2(t, s)

		testutils.MustWaitInkvaultCmd(t, opts, testutils.CancelRemoveRecord, binaryName, "--dbPath", dbPath, "remove", utils.ShortID(testutils.NoteID1))

		n1 := mustGet(t, s, testutils.NoteID1)
		assert.Equal(t, n1.IsDeleted(), false, "n1 should not be deleted")
	})
}

func TestDBPathFlag(t *testing.T) {
	verifyDatabase := func(t *testing.T, dbPath, expectedContent string) *database.DB {
		ok, err := utils.FileExists(dbPath)
		if err != nil {
			t.Fatal(errors.Wrapf(err, "checking if custom db exists at %s", dbPath))
		}
		if !ok {
			t.Fatalf("custom database was not created at %s", dbPath)
		}

		db := testutils.MustOpenDatabase(t, dbPath)

		var count int
		database.MustScan(t, "counting records", db.QueryRow("SELECT count(*) FROM records"), &count)
		assert.Equalf(t, count, 1, dbPath+" record count mismatch")

		rs, err := database.NewStore(db).Query(syncer.Filter{})
		assert.NilErr(t, err, "querying "+dbPath)
		assert.Equal(t, rs[0].Payload.Content.Text, expectedContent, dbPath+" content mismatch")

		return db
	}

	testDir, opts := setupTestEnv(t)
	customDBPath1 := filepath.Join(testDir, "custom-test1.db")
	customDBPath2 := filepath.Join(testDir, "custom-test2.db")

	testutils.RunInkvaultCmd(t, opts, binaryName, "--dbPath", customDBPath1, "add", "-c", "content in db1")
	testutils.RunInkvaultCmd(t, opts, binaryName, "add", "-c", "content in db2", "--dbPath="+customDBPath2)

	db1 := verifyDatabase(t, customDBPath1, "content in db1")
	db2 := verifyDatabase(t, customDBPath2, "content in db2")

	var n int
	database.MustScan(t, "counting", db1.QueryRow("SELECT count(*) FROM records WHERE payload LIKE ?", "%db2%"), &n)
	assert.Equal(t, n, 0, "db1 should not have db2's record")
	database.MustScan(t, "counting", db2.QueryRow("SELECT count(*) FROM records WHERE payload LIKE ?", "%db1%"), &n)
	assert.Equal(t, n, 0, "db2 should not have db1's record")
}

func TestParseDBPath(t *testing.T) {
	testCases := []struct {
		args     []string
		expected string
	}{
		{args: []string{"add", "-c", "foo"}, expected: ""},
		{args: []string{"--dbPath", "/tmp/a.db", "add"}, expected: "/tmp/a.db"},
		{args: []string{"sync", "--full", "--dbPath=/tmp/b.db"}, expected: "/tmp/b.db"},
		{args: []string{"view", "--dbPath"}, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v", tc.args), func(t *testing.T) {
			assert.Equal(t, parseDBPath(tc.args), tc.expected, "result mismatch")
		})
	}
}
