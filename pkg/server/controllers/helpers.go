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
	"errors"
	"net/http"

	"github.com/inkvault/inkvault/pkg/server/app"
	mw "github.com/inkvault/inkvault/pkg/server/middleware"
	"github.com/inkvault/inkvault/pkg/wire"
	pkgErrors "github.com/pkg/errors"
)

// errBadRequestBody is an error for a body that is not valid JSON
var errBadRequestBody = errors.New("malformed request body")

// parseRequestData decodes the JSON body of the request into v
func parseRequestData(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, wire.MaxRequestBytes)
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return pkgErrors.Wrap(errBadRequestBody, err.Error())
	}

	return nil
}

// getStatusCode maps an application error to the HTTP status of its response
func getStatusCode(err error) int {
	var verr *wire.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}

	switch pkgErrors.Cause(err) {
	case errBadRequestBody,
		app.ErrQuotaExceeded,
		app.ErrEmailRequired,
		app.ErrPasswordTooShort,
		app.ErrPasswordConfirmationMismatch:
		return http.StatusBadRequest
	case app.ErrSyncTokenMismatch, app.ErrLoginInvalid:
		return http.StatusUnauthorized
	case app.ErrNotFound:
		return http.StatusNotFound
	case app.ErrDuplicateEmail:
		return http.StatusConflict
	case app.ErrRegistrationDisabled:
		return http.StatusForbidden
	}

	return http.StatusInternalServerError
}

// handleJSONError responds with the failure envelope for the given error
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	status := getStatusCode(err)

	if pkgErrors.Cause(err) == app.ErrQuotaExceeded {
		mw.RespondError(w, status, wire.QuotaExceededMessage)
		return
	}

	mw.DoError(w, msg, pkgErrors.Cause(err), status)
}
