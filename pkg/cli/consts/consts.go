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

// Package consts provides definitions of constants
package consts

var (
	// DBFileName is a filename for the local SQLite database
	DBFileName = "inkvault.db"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "INKVAULT_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "md"
	// ConfigFilename is the name of the config file
	ConfigFilename = "inkvaultrc"

	// SystemLastSyncedTo is the server change timestamp up to which all changes were pulled
	SystemLastSyncedTo = "last_synced_to"
	// SystemLastSyncAt is the local time of the last successful sync
	SystemLastSyncAt = "last_sync_at"
	// SystemSessionKey is the session key
	SystemSessionKey = "session_token"
	// SystemSessionKeyExpiry is the timestamp at which the session key will expire
	SystemSessionKeyExpiry = "session_token_expiry"
	// SystemEmail is the email of the logged in account
	SystemEmail = "email"
	// SystemLoggedIn is "1" while the session is usable for syncing
	SystemLoggedIn = "logged_in"
	// SystemEncryptionKey is the encoded key that encrypts record payloads
	SystemEncryptionKey = "encryption_key"
	// SystemSyncToken is the token binding this device's key to the account
	SystemSyncToken = "sync_token"
	// SystemVaultVerifier is the JSON encoded verifier of the vault password
	SystemVaultVerifier = "vault_verifier"
)
