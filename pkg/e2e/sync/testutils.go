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

// Package sync exercises devices syncing through a real server
package sync

import (
	stdcontext "context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault/inkvault/pkg/cli/cmd/add"
	"github.com/inkvault/inkvault/pkg/cli/cmd/edit"
	"github.com/inkvault/inkvault/pkg/cli/cmd/login"
	synccmd "github.com/inkvault/inkvault/pkg/cli/cmd/sync"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/controllers"
	serverDatabase "github.com/inkvault/inkvault/pkg/server/database"
	apitest "github.com/inkvault/inkvault/pkg/server/testutils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var serverTime = time.Date(2017, time.March, 14, 21, 15, 0, 0, time.UTC)

const (
	testEmail      = "alice@example.com"
	testPassword   = "pass1234"
	testPassphrase = "correct horse battery staple"
)

// testEnv is a server with one registered account
type testEnv struct {
	App    *app.App
	Server *httptest.Server
	DB     *gorm.DB
	User   serverDatabase.User
}

func setupTestEnv(t *testing.T) testEnv {
	db := apitest.InitMemoryDB(t)

	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)

	a := app.NewTest()
	a.Clock = mockClock
	a.DB = db

	server := controllers.MustNewServer(t, &a)
	t.Cleanup(server.Close)

	user := apitest.SetupUserData(db, testEmail, testPassword)

	return testEnv{
		App:    &a,
		Server: server,
		DB:     db,
		User:   user,
	}
}

// serverRecordCount returns the number of records the server stores
func (env testEnv) serverRecordCount(t *testing.T) int64 {
	var count int64
	if err := env.DB.Model(&serverDatabase.Record{}).Count(&count).Error; err != nil {
		t.Fatal(errors.Wrap(err, "counting server records"))
	}

	return count
}

// serverRecord returns the record the server stores for the id
func (env testEnv) serverRecord(t *testing.T, id string) serverDatabase.Record {
	var ret serverDatabase.Record
	if err := env.DB.Where("uuid = ?", id).First(&ret).Error; err != nil {
		t.Fatal(errors.Wrapf(err, "finding server record %s", id))
	}

	return ret
}

// device is a client with its own local store and clock
type device struct {
	ctx   context.InkvaultCtx
	clock *clock.Mock
}

// newDevice returns a device logged in to the account of the env
func newDevice(t *testing.T, env testEnv, passphrase string) *device {
	ctx := context.InitTestCtx(t)
	ctx.APIEndpoint = env.Server.URL + "/api"

	mockClock := clock.NewMock()
	mockClock.SetNow(serverTime)
	ctx.Clock = mockClock

	creds := login.Credentials{Email: testEmail, Password: testPassword, Passphrase: passphrase}
	if err := login.Do(stdcontext.Background(), ctx, creds); err != nil {
		t.Fatal(errors.Wrap(err, "logging in"))
	}

	var sessionKey string
	if err := database.GetSystem(ctx.DB, consts.SystemSessionKey, &sessionKey); err != nil {
		t.Fatal(errors.Wrap(err, "getting the session key"))
	}
	ctx.SessionKey = sessionKey

	return &device{ctx: ctx, clock: mockClock}
}

func newID() string {
	return uuid.New().String()
}

// trySync runs one sync command on the device
func (d *device) trySync() (syncer.Result, error) {
	return synccmd.Do(stdcontext.Background(), d.ctx, false)
}

// sync runs one sync command on the device and fails the test on error
func (d *device) sync(t *testing.T) syncer.Result {
	res, err := d.trySync()
	if err != nil {
		t.Fatal(errors.Wrap(err, "syncing"))
	}

	return res
}

// add creates a record the way the add command does
func (d *device) add(t *testing.T, p add.Params) record.Record {
	d.clock.Advance(time.Second)

	r, err := add.NewRecord(p, d.ctx.Now(), newID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "building a record"))
	}
	if err := d.ctx.Store.Put(r); err != nil {
		t.Fatal(errors.Wrap(err, "saving a record"))
	}

	return r
}

// edit changes a record the way the edit command does
func (d *device) edit(t *testing.T, id string, c edit.Changes) record.Record {
	d.clock.Advance(time.Second)

	r := d.get(t, id)
	edited, err := edit.Apply(r, c, d.ctx.Now(), newID)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "editing %s", id))
	}
	saved, err := syncer.SaveEdit(d.ctx.Store, r, edited, d.ctx.Now())
	if err != nil {
		t.Fatal(errors.Wrapf(err, "saving %s", id))
	}

	return saved
}

// get returns the local record of the id and fails the test if it is missing
func (d *device) get(t *testing.T, id string) record.Record {
	r, err := d.ctx.Store.Get(id)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "getting %s", id))
	}
	if r == nil {
		t.Fatalf("record %s not found", id)
	}

	return *r
}

func strPtr(s string) *string {
	return &s
}
