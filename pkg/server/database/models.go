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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for an account
type User struct {
	Model
	UUID        string     `json:"uuid" gorm:"type:text;uniqueIndex"`
	Email       string     `json:"email" gorm:"type:text;uniqueIndex"`
	Password    string     `json:"-"`
	LastLoginAt *time.Time `json:"-"`
	// SyncToken is adopted from the first sync and immutable afterwards
	SyncToken string `json:"-" gorm:"type:text"`
	// LastChangeAt is the latest serverside_updated_at assigned for the account
	LastChangeAt int64 `json:"-" gorm:"default:0"`
}

// Record is an encrypted record as stored by the server. The server never
// sees the plaintext.
type Record struct {
	Model
	UserID     int     `gorm:"uniqueIndex:idx_records_user_uuid"`
	UUID       string  `gorm:"type:text;uniqueIndex:idx_records_user_uuid"`
	Type       string  `gorm:"type:text"`
	AddedOn    int64   `gorm:"not null"`
	EditedOn   int64   `gorm:"not null"`
	CipherText *string `gorm:"type:text"`
	IV         *string `gorm:"type:text"`
	Version    int     `gorm:"not null"`
	DeletedOn  int64   `gorm:"default:0"`
	// ServersideUpdatedAt is the time in milliseconds at which the server last
	// accepted a write for the record
	ServersideUpdatedAt int64 `gorm:"index"`
}

// IsDeleted returns true if the record is a tombstone
func (r Record) IsDeleted() bool {
	return r.DeletedOn != 0
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"uniqueIndex"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}
