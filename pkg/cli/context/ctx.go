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

// Package context defines inkvault context
package context

import (
	"net/http"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	// Config is the directory holding the config file
	Config string
	// Data is the directory holding the database
	Data string
}

// InkvaultCtx is a context holding the information of the current runtime
type InkvaultCtx struct {
	Paths            Paths
	APIEndpoint      string
	Version          string
	DBPath           string
	DB               *database.DB
	Store            *database.Store
	SessionKey       string
	SessionKeyExpiry int64
	Editor           string
	SyncTimeout      time.Duration
	SyncSchedule     string
	Clock            clock.Clock
	HTTPClient       *http.Client
}

// Client returns an api client for the configured endpoint and session
func (ctx InkvaultCtx) Client() *client.Client {
	c := client.New(ctx.APIEndpoint, ctx.Version)
	c.SessionKey = ctx.SessionKey
	if ctx.HTTPClient != nil {
		c.HTTPClient = ctx.HTTPClient
	}

	return c
}

// Orchestrator returns a sync orchestrator for the local store
func (ctx InkvaultCtx) Orchestrator(onResult func(syncer.Reason, syncer.Result, error)) *syncer.Orchestrator {
	return syncer.New(ctx.Store, ctx.Client(), syncer.Options{
		Timeout:  ctx.SyncTimeout,
		Clock:    ctx.Clock,
		OnResult: onResult,
	})
}

// Now returns the current time of the context clock in milliseconds
func (ctx InkvaultCtx) Now() int64 {
	return clock.Millis(ctx.Clock)
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx InkvaultCtx) InkvaultCtx {
	var sessionKey string
	if ctx.SessionKey != "" {
		sessionKey = "1"
	} else {
		sessionKey = "0"
	}
	ctx.SessionKey = sessionKey

	return ctx
}
