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

package login

import (
	stdcontext "context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/wire"
)

func TestGetServerDisplayURL(t *testing.T) {
	testCases := []struct {
		apiEndpoint string
		expected    string
	}{
		{
			apiEndpoint: "https://inkvault.mydomain.com/api",
			expected:    "https://inkvault.mydomain.com",
		},
		{
			apiEndpoint: "https://mysubdomain.mydomain.com/inkvault/api",
			expected:    "https://mysubdomain.mydomain.com",
		},
		{
			apiEndpoint: "https://inkvault.mysubdomain.mydomain.com/api",
			expected:    "https://inkvault.mysubdomain.mydomain.com",
		},
		{
			apiEndpoint: "some-string",
			expected:    "",
		},
		{
			apiEndpoint: "",
			expected:    "",
		},
		{
			apiEndpoint: "https://",
			expected:    "",
		},
		{
			apiEndpoint: "https://abc",
			expected:    "https://abc",
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("for input %s", tc.apiEndpoint), func(t *testing.T) {
			got := getServerDisplayURL(context.InkvaultCtx{APIEndpoint: tc.apiEndpoint})
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func newSigninServer(t *testing.T) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/api/v3/signin" || body.Password != "pass1234" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(wire.ErrorResponse{Error: "wrong login", StatusCode: http.StatusUnauthorized})
			return
		}

		json.NewEncoder(w).Encode(client.SigninResponse{
			Session: client.Session{Key: "session-key", ExpiresAt: 1700000000},
			User:    client.User{UUID: "user-uuid", Email: body.Email},
		})
	}))
	t.Cleanup(ts.Close)

	return ts
}

func TestDo(t *testing.T) {
	ts := newSigninServer(t)

	ctx := context.InitTestCtx(t)
	ctx.APIEndpoint = ts.URL + "/api"

	err := Do(stdcontext.Background(), ctx, Credentials{Email: "alice@example.com", Password: "pass1234", Passphrase: "correct horse"})
	assert.NilErr(t, err, "logging in")

	var sessionKey, expiry, email string
	database.MustScan(t, "scanning session key",
		ctx.DB.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKey), &sessionKey)
	database.MustScan(t, "scanning session key expiry",
		ctx.DB.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemSessionKeyExpiry), &expiry)
	database.MustScan(t, "scanning email",
		ctx.DB.QueryRow("SELECT value FROM system WHERE key = ?", consts.SystemEmail), &email)

	assert.Equal(t, sessionKey, "session-key", "session key mismatch")
	assert.Equal(t, expiry, "1700000000", "session key expiry mismatch")
	assert.Equal(t, email, "alice@example.com", "email mismatch")

	creds, err := ctx.Store.Credentials()
	assert.NilErr(t, err, "getting credentials")

	expectedKey := crypt.DeriveKey([]byte("correct horse"), []byte("alice@example.com"))
	expectedToken, err := crypt.NewSyncToken(expectedKey)
	assert.NilErr(t, err, "deriving token")

	assert.Equal(t, creds.LoggedIn, true, "should be logged in")
	assert.DeepEqual(t, creds.Key, expectedKey, "key mismatch")
	assert.Equal(t, creds.SyncToken, expectedToken, "sync token mismatch")
}

func TestDo_wrongLogin(t *testing.T) {
	ts := newSigninServer(t)

	ctx := context.InitTestCtx(t)
	ctx.APIEndpoint = ts.URL + "/api"

	err := Do(stdcontext.Background(), ctx, Credentials{Email: "alice@example.com", Password: "wrong", Passphrase: "x"})
	assert.EqualErr(t, err, client.ErrInvalidLogin, "error mismatch")

	creds, err := ctx.Store.Credentials()
	assert.NilErr(t, err, "getting credentials")
	assert.Equal(t, creds.LoggedIn, false, "should not be logged in")
}

func TestDo_emptyPassphrase(t *testing.T) {
	ctx := context.InitTestCtx(t)

	err := Do(stdcontext.Background(), ctx, Credentials{Email: "alice@example.com", Password: "pass1234"})
	assert.EqualErr(t, err, ErrEmptyPassphrase, "error mismatch")
}
