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

package middleware

import (
	"net/http"
	"time"

	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/pkg/errors"
)

// Middleware wraps a route handler
type Middleware func(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler

// APIMw is the middleware applied to every API route
func APIMw(h http.HandlerFunc, a *app.App, rateLimit bool) http.Handler {
	return ApplyLimit(h, rateLimit)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush lets long-polling handlers push their response through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Global is the outermost middleware. It logs every request and turns
// panics into internal server errors.
func Global(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if v := recover(); v != nil {
				DoError(rec, "recovering from panic", errors.Errorf("%v", v), http.StatusInternalServerError)
			}

			log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
				"ip":       lookupIP(r),
			}).Info("Request")
		}()

		next.ServeHTTP(rec, r)
	})
}

// NotSupported responds to the API versions that are no longer served
func NotSupported(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusGone, "API version is not supported. Please upgrade your client.")
}

// NotFound responds to unknown routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}
