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

// Package testutils provides utilities used in tests
package testutils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/helpers"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SyncToken is a well-formed sync token used in tests
const SyncToken = "QUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUE="

// OtherSyncToken is a well-formed sync token different from SyncToken
const OtherSyncToken = "QkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkJCQkI="

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// A file-based in-memory database with a unique name per test lets all
	// connections of the pool share the same data without leaking between tests
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatalf("failed to generate UUID for test database: %v", err)
	}
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid)
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	database.InitSchema(db)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "Failed to generate UUID"))
	}
	return uuid
}

// SetupUserData creates and returns a new user with email and password for testing purposes
func SetupUserData(db *gorm.DB, email, password string) database.User {
	uuid, err := helpers.GenUUID()
	if err != nil {
		panic(errors.Wrap(err, "Failed to generate UUID"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash password"))
	}

	user := database.User{
		UUID:     uuid,
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := db.Save(&user).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare user"))
	}

	return user
}

// SetupSession creates and returns a new session for the user
func SetupSession(db *gorm.DB, user database.User) database.Session {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(errors.Wrap(err, "reading random bits"))
	}

	session := database.Session{
		Key:       base64.StdEncoding.EncodeToString(b),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour * 24),
	}
	if err := db.Save(&session).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare session"))
	}

	return session
}

// RecordOptions describes a stored record to set up
type RecordOptions struct {
	UUID       string
	Type       string
	CipherText string
	Version    int
	EditedOn   int64
	DeletedOn  int64
	ServerTS   int64
}

// SetupRecord stores a record for the user
func SetupRecord(db *gorm.DB, user database.User, o RecordOptions) database.Record {
	r := database.Record{
		UserID:              user.ID,
		UUID:                o.UUID,
		Type:                o.Type,
		AddedOn:             1,
		EditedOn:            o.EditedOn,
		Version:             o.Version,
		DeletedOn:           o.DeletedOn,
		ServersideUpdatedAt: o.ServerTS,
	}
	if r.Type == "" {
		r.Type = "note"
	}
	if r.EditedOn == 0 {
		r.EditedOn = 1
	}
	if o.DeletedOn == 0 {
		c, iv := o.CipherText, "aXY="
		r.CipherText = &c
		r.IV = &iv
	}

	if err := db.Create(&r).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare record"))
	}

	return r
}

// UpsertPut returns an upsert put with the given fields
func UpsertPut(id string, version int, updatedAt int64, cipherText string) wire.Put {
	iv := "aXY="
	return wire.Put{
		ID:         id,
		Type:       "note",
		CreatedAt:  1,
		UpdatedAt:  updatedAt,
		CipherText: &cipherText,
		IV:         &iv,
		Version:    version,
	}
}

// DeletePut returns a deletion put with the given fields
func DeletePut(id string, version int, deletedAt int64) wire.Put {
	return wire.Put{
		ID:        id,
		Type:      "note",
		CreatedAt: 1,
		UpdatedAt: deletedAt,
		Version:   version,
		DeletedAt: &deletedAt,
	}
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// SetReqAuthHeader sets the authorization header in the given request for the given session
func SetReqAuthHeader(req *http.Request, session database.Session) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.Key))
}

// HTTPAuthDo makes an HTTP request with a new session of the given user
func HTTPAuthDo(t *testing.T, db *gorm.DB, req *http.Request, user database.User) *http.Response {
	SetReqAuthHeader(req, SetupSession(db, user))

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MakeJSONReq makes an HTTP request with the JSON encoding of the given payload
func MakeJSONReq(t *testing.T, endpoint, method, path string, payload interface{}) *http.Request {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		t.Fatal(errors.Wrap(err, "encoding payload"))
	}

	req := MakeReq(endpoint, method, path, buf.String())
	req.Header.Set("Content-Type", "application/json")

	return req
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// MustDecodeJSON decodes the body of the response into v and fails the test on error
func MustDecodeJSON(t *testing.T, res *http.Response, v interface{}) {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatal(errors.Wrap(err, "decoding response"))
	}
}
