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

package presenters

import (
	"time"

	"github.com/inkvault/inkvault/pkg/server/database"
)

// Session is the result of a sign in
type Session struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// PresentSession presents a session
func PresentSession(s database.Session) Session {
	return Session{
		Key:       s.Key,
		ExpiresAt: s.ExpiresAt.Unix(),
	}
}

// User is the public information of a user
type User struct {
	UUID      string    `json:"uuid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// PresentUser presents a user
func PresentUser(u database.User) User {
	return User{
		UUID:      u.UUID,
		Email:     u.Email,
		CreatedAt: FormatTS(u.CreatedAt),
	}
}
