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

package app

import (
	"errors"

	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/server/database"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// sessionKeyLength is the number of random bytes in a session key
const sessionKeyLength = 32

// CreateSession returns a new session for the user of the given id
func (a *App) CreateSession(userID int) (database.Session, error) {
	key, err := crypt.RandomString(sessionKeyLength)
	if err != nil {
		return database.Session{}, pkgErrors.Wrap(err, "generating key")
	}

	now := a.Clock.Now()
	session := database.Session{
		UserID:     userID,
		Key:        key,
		LastUsedAt: now,
		ExpiresAt:  now.Add(a.SessionTTL),
	}

	if err := a.DB.Create(&session).Error; err != nil {
		return database.Session{}, pkgErrors.Wrap(err, "saving session")
	}

	return session, nil
}

// GetSession returns the unexpired session of the given key along with its user
func (a *App) GetSession(key string) (database.Session, database.User, error) {
	var session database.Session
	err := a.DB.Where("key = ? AND expires_at > ?", key, a.Clock.Now()).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Session{}, database.User{}, ErrNotFound
	} else if err != nil {
		return database.Session{}, database.User{}, pkgErrors.Wrap(err, "finding session")
	}

	var user database.User
	err = a.DB.Where("id = ?", session.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Session{}, database.User{}, ErrNotFound
	} else if err != nil {
		return database.Session{}, database.User{}, pkgErrors.Wrap(err, "finding user")
	}

	return session, user, nil
}

// DeleteUserSessions deletes all existing sessions for the given user. It effectively
// invalidates all existing sessions.
func (a *App) DeleteUserSessions(db *gorm.DB, userID int) error {
	if err := db.Where("user_id = ?", userID).Delete(&database.Session{}).Error; err != nil {
		return pkgErrors.Wrap(err, "deleting sessions")
	}

	return nil
}

// DeleteSession deletes the session that match the given info
func (a *App) DeleteSession(sessionKey string) error {
	if err := a.DB.Where("key = ?", sessionKey).Delete(&database.Session{}).Error; err != nil {
		return pkgErrors.Wrap(err, "deleting the session")
	}

	return nil
}

// DeleteExpiredSessions removes the sessions that expired and returns how
// many were removed
func (a *App) DeleteExpiredSessions() (int64, error) {
	res := a.DB.Where("expires_at <= ?", a.Clock.Now()).Delete(&database.Session{})
	if err := res.Error; err != nil {
		return 0, pkgErrors.Wrap(err, "deleting expired sessions")
	}

	return res.RowsAffected, nil
}
