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

// Package vault protects the content of records with a password that is
// separate from the account passphrase
package vault

import (
	"database/sql"
	"encoding/json"

	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

var (
	// ErrNotSetUp is returned when no vault password was set on this device
	ErrNotSetUp = errors.New("vault is not set up. Run `inkvault vault setup` first")
	// ErrAlreadySetUp is returned when setting up a vault twice
	ErrAlreadySetUp = errors.New("vault is already set up")
	// ErrAlreadyProtected is returned when protecting a protected record
	ErrAlreadyProtected = errors.New("record is already protected")
	// ErrNotProtected is returned when unprotecting a record that is not protected
	ErrNotProtected = errors.New("record is not protected")
	// ErrDeleted is returned for tombstones
	ErrDeleted = errors.New("record is deleted")
)

// Load returns the verifier of the vault password
func Load(db *database.DB) (crypt.Verifier, error) {
	var raw string
	err := database.GetSystem(db, consts.SystemVaultVerifier, &raw)
	if errors.Cause(err) == sql.ErrNoRows {
		return crypt.Verifier{}, ErrNotSetUp
	} else if err != nil {
		return crypt.Verifier{}, errors.Wrap(err, "getting the vault verifier")
	}

	var v crypt.Verifier
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return crypt.Verifier{}, errors.Wrap(err, "decoding the vault verifier")
	}

	return v, nil
}

// Setup stores the verifier of a new vault password
func Setup(db *database.DB, password string) error {
	_, err := Load(db)
	if err == nil {
		return ErrAlreadySetUp
	} else if err != ErrNotSetUp {
		return err
	}

	v, err := crypt.NewVerifier(password)
	if err != nil {
		return errors.Wrap(err, "creating a verifier")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding the verifier")
	}

	if err := database.UpsertSystem(db, consts.SystemVaultVerifier, string(b)); err != nil {
		return errors.Wrap(err, "saving the verifier")
	}

	return nil
}

// Unlock checks the password against the stored verifier
func Unlock(db *database.DB, password string) (*crypt.Vault, error) {
	v, err := Load(db)
	if err != nil {
		return nil, err
	}

	return crypt.Unlock(password, v)
}

// Protect seals the content of the record with the vault key
func Protect(v *crypt.Vault, r record.Record, now int64) (record.Record, error) {
	if r.IsDeleted() {
		return r, ErrDeleted
	}
	if r.Payload.Protected() {
		return r, ErrAlreadyProtected
	}

	b, err := json.Marshal(r.Payload.Content)
	if err != nil {
		return r, errors.Wrap(err, "encoding the content")
	}
	sealed, err := v.Seal(b)
	if err != nil {
		return r, errors.Wrap(err, "sealing the content")
	}

	p := r.Payload.Clone()
	p.Content = record.Content{}
	p.Locked = &sealed

	return r.Edit(p, now), nil
}

// Reveal opens the content of a protected payload
func Reveal(v *crypt.Vault, p record.Payload) (record.Content, error) {
	if !p.Protected() {
		return p.Content, nil
	}

	b, err := v.Open(*p.Locked)
	if err != nil {
		return record.Content{}, errors.Wrap(err, "opening the content")
	}

	var c record.Content
	if err := json.Unmarshal(b, &c); err != nil {
		return record.Content{}, errors.Wrap(err, "decoding the content")
	}

	return c, nil
}

// Unprotect restores the sealed content of the record
func Unprotect(v *crypt.Vault, r record.Record, now int64) (record.Record, error) {
	if r.IsDeleted() {
		return r, ErrDeleted
	}
	if !r.Payload.Protected() {
		return r, ErrNotProtected
	}

	c, err := Reveal(v, *r.Payload)
	if err != nil {
		return r, err
	}

	p := r.Payload.Clone()
	p.Content = c
	p.Locked = nil

	return r.Edit(p, now), nil
}
