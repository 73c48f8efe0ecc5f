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
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is an error for a missing resource
	ErrNotFound = errors.New("not found")
	// ErrLoginInvalid is an error for a wrong email and password combination
	ErrLoginInvalid = errors.New("wrong login credentials")
	// ErrEmailRequired is an error for a missing email
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordTooShort is an error for a password under the minimum length
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrPasswordConfirmationMismatch is an error for a confirmation that does not match the password
	ErrPasswordConfirmationMismatch = errors.New("password confirmation does not match")
	// ErrDuplicateEmail is an error for an email that is already taken
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrRegistrationDisabled is an error for a signup on a server that does not accept new users
	ErrRegistrationDisabled = errors.New("registration is disabled")

	// ErrSyncTokenMismatch is an error for a sync token different from the
	// one bound to the account
	ErrSyncTokenMismatch = errors.New("sync token mismatch")
	// ErrQuotaExceeded is an error for a sync that would grow the account
	// past its storage quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)
