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
	"io"
	"net/http"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/testutils"
)

func TestNotSupportedVersions(t *testing.T) {
	testCases := []struct {
		path string
	}{
		{path: "/api/v1"},
		{path: "/api/v1/foo"},
		{path: "/api/v2/bar/baz"},
	}

	db := testutils.InitMemoryDB(t)
	a := app.NewTest()
	a.DB = db
	server := MustNewServer(t, &a)
	defer server.Close()

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			req := testutils.MakeReq(server.URL, "GET", tc.path, "")
			res := testutils.HTTPDo(t, req)

			assert.Equal(t, res.StatusCode, http.StatusGone, "status code mismatch")
		})
	}
}

func TestHealthAndNotFound(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	a := app.NewTest()
	a.DB = db
	server := MustNewServer(t, &a)
	defer server.Close()

	res := testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/health", ""))
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	assert.NilErr(t, err, "reading body")
	assert.Equal(t, res.StatusCode, http.StatusOK, "health status mismatch")
	assert.Equal(t, string(body), "ok", "health body mismatch")

	res = testutils.HTTPDo(t, testutils.MakeReq(server.URL, "GET", "/api/v3/nope", ""))
	assert.Equal(t, res.StatusCode, http.StatusNotFound, "status code mismatch")
}

func TestNewRouter_invalidApp(t *testing.T) {
	a := app.NewTest()

	_, err := NewServer(&a)
	if err == nil {
		t.Fatal("expected an error for an app without a database")
	}
}
