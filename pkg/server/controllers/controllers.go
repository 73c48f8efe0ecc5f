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

// Package controllers implements the HTTP handlers of the server
package controllers

import (
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/notify"
)

// Controllers is a group of controllers
type Controllers struct {
	Users  *Users
	Sync   *Sync
	Events *Events
	Health *Health
}

// New returns a new group of controllers. The hub delivers the change
// events published by the sync controller to the events controller.
func New(app *app.App, hub *notify.Hub) *Controllers {
	c := Controllers{}

	c.Users = NewUsers(app)
	c.Sync = NewSync(app)
	c.Events = NewEvents(hub)
	c.Health = NewHealth(app)

	return &c
}
