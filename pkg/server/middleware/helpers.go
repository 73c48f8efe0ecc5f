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

// Package middleware provides the HTTP middlewares and the response helpers
// shared by the handlers
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
)

// ErrMalformedAuthorization is an error for an Authorization header that is not a bearer credential
var ErrMalformedAuthorization = errors.New("malformed Authorization header")

// GetCredential extracts the session key from the Authorization header of
// the request. It returns an empty string if the header is absent.
func GetCredential(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMalformedAuthorization
	}

	return parts[1], nil
}

// RespondJSON writes the JSON encoding of v with the given status
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// RespondError writes the failure envelope with the given status and message
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, wire.ErrorResponse{
		Success:    false,
		Error:      message,
		StatusCode: status,
	})
}

// RespondUnauthorized responds with an unauthorized error
func RespondUnauthorized(w http.ResponseWriter) {
	RespondError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
}

// DoError logs the error and responds with the given status. Internal errors
// are not exposed to the client.
func DoError(w http.ResponseWriter, msg string, err error, status int) {
	if status >= http.StatusInternalServerError {
		log.ErrorWrap(err, msg)
		RespondError(w, status, http.StatusText(status))
		return
	}

	log.WithFields(log.Fields{
		"status": status,
		"error":  err,
	}).Info(msg)

	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
	}
	RespondError(w, status, message)
}
