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

import (
	"encoding/json"

	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
)

// EncryptPayload seals the JSON encoding of the payload
func EncryptPayload(key crypt.Key, p record.Payload) (crypt.Sealed, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return crypt.Sealed{}, errors.Wrap(err, "encoding payload")
	}

	return crypt.Encrypt(key, b)
}

// DecryptPayload opens a payload sealed by EncryptPayload
func DecryptPayload(key crypt.Key, s crypt.Sealed) (record.Payload, error) {
	var ret record.Payload

	b, err := crypt.Decrypt(key, s)
	if err != nil {
		return ret, err
	}
	if err := json.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding payload")
	}

	return ret, nil
}

// EncodeRecord converts a local record into its wire form. Tombstones carry
// no cipher text.
func EncodeRecord(key crypt.Key, r record.Record) (wire.Put, error) {
	ret := wire.Put{
		ID:        r.ID,
		Type:      string(r.Kind),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Version:   r.Version,
	}

	if r.IsDeleted() {
		deletedAt := r.DeletedAt
		ret.DeletedAt = &deletedAt
		return ret, nil
	}

	var p record.Payload
	if r.Payload != nil {
		p = *r.Payload
	}

	sealed, err := EncryptPayload(key, p)
	if err != nil {
		return ret, errors.Wrapf(err, "encrypting %s", r.ID)
	}
	ret.CipherText = &sealed.CipherText
	ret.IV = &sealed.IV

	return ret, nil
}

// DecodeRecord converts a put received from the server into a synced record
func DecodeRecord(key crypt.Key, p wire.Put) (record.Record, error) {
	if err := p.Validate(); err != nil {
		return record.Record{}, errors.Wrapf(err, "validating %s", p.ID)
	}

	ret := record.Record{
		ID:        p.ID,
		Kind:      record.Kind(p.Type),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
		State:     record.StateSynced,
	}

	if p.IsDeleted() {
		ret.DeletedAt = *p.DeletedAt
		return ret, nil
	}

	payload, err := DecryptPayload(key, crypt.Sealed{CipherText: *p.CipherText, IV: *p.IV})
	if err != nil {
		return ret, errors.Wrapf(err, "decrypting %s", p.ID)
	}
	ret.Payload = &payload

	return ret, nil
}

// redact returns the puts without their cipher text for logging
func redact(puts []wire.Put) []wire.Put {
	redacted := "<redacted>"

	ret := make([]wire.Put, 0, len(puts))
	for _, p := range puts {
		if p.CipherText != nil {
			p.CipherText = &redacted
			p.IV = &redacted
		}
		ret = append(ret, p)
	}

	return ret
}
