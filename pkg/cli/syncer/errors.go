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

package syncer

import "github.com/pkg/errors"

var (
	// ErrNotLoggedIn is returned when there are no usable credentials on this device
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrUnauthorized is returned when the server rejected the session or the sync token.
	// The device is marked as logged out.
	ErrUnauthorized = errors.New("the server rejected the credentials of this device")
	// ErrQuotaExceeded is returned when the server rejected a sync for exceeding the storage quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNoConflict is returned when resolving a record that has no pending conflict
	ErrNoConflict = errors.New("no pending conflict for the record")
	// ErrInvalidChoice is returned for an unknown side of a conflict
	ErrInvalidChoice = errors.New("invalid choice")
	// ErrChangedWhileEditing is returned when a record changed under an edit
	// and the edit could not be merged into the newer copy
	ErrChangedWhileEditing = errors.New("the record changed while editing")
)
