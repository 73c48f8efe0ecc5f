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

// Package wire defines the sync protocol exchanged between clients and the server
package wire

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkvault/inkvault/pkg/record"
)

const (
	// SyncTokenLength is the length of an encoded sync token
	SyncTokenLength = 44
	// QuotaExceededMessage is the error message of a sync rejected by the storage quota
	QuotaExceededMessage = "storage quota exceeded"
	// MaxPuts is the maximum number of puts in a single request
	MaxPuts = 1000
	// MaxRequestBytes is the largest sync request body the server reads
	MaxRequestBytes = 64 << 20
	// RequestOverhead bounds the encoded size of a request without its puts
	RequestOverhead = 1 << 10

	// putOverhead bounds the encoded size of a put without its id, cipher text and iv
	putOverhead = 256
)

// ValidationError is an error for a malformed sync request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Put is the wire representation of one record change
type Put struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
	CipherText *string `json:"cipher_text"`
	IV         *string `json:"iv"`
	Version    int     `json:"version"`
	DeletedAt  *int64  `json:"deleted_at"`
}

// IsDeleted returns true if the put is a deletion
func (p Put) IsDeleted() bool {
	return p.DeletedAt != nil && *p.DeletedAt > 0
}

// Size returns an upper bound of the encoded size of the put
func (p Put) Size() int {
	ret := putOverhead + len(p.ID) + len(p.Type)
	if p.CipherText != nil {
		ret += len(*p.CipherText)
	}
	if p.IV != nil {
		ret += len(*p.IV)
	}

	return ret
}

// Validate checks the shape of the put. A deletion never carries
// ciphertext and an upsert always does.
func (p Put) Validate() error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return &ValidationError{Field: "id", Message: fmt.Sprintf("'%s' is not a uuid", p.ID)}
	}
	if !record.Kind(p.Type).Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown type '%s'", p.Type)}
	}
	if p.CreatedAt <= 0 || p.UpdatedAt <= 0 {
		return &ValidationError{Field: "timestamps", Message: "must be positive"}
	}
	if p.Version <= 0 {
		return &ValidationError{Field: "version", Message: "must be positive"}
	}

	if p.DeletedAt != nil {
		if *p.DeletedAt <= 0 {
			return &ValidationError{Field: "deleted_at", Message: "must be positive or null"}
		}
		if p.CipherText != nil || p.IV != nil {
			return &ValidationError{Field: "cipher_text", Message: "a deletion carries no cipher text"}
		}

		return nil
	}

	if p.CipherText == nil || p.IV == nil {
		return &ValidationError{Field: "cipher_text", Message: "an upsert requires cipher text and iv"}
	}

	return nil
}

// SyncRequest is the payload of a sync call
type SyncRequest struct {
	LastSyncedTo int64  `json:"last_synced_to"`
	SyncToken    string `json:"sync_token"`
	Puts         []Put  `json:"puts"`
}

// Validate checks the shape of the request
func (r SyncRequest) Validate() error {
	if r.LastSyncedTo < 0 {
		return &ValidationError{Field: "last_synced_to", Message: "must not be negative"}
	}
	if len(r.SyncToken) != SyncTokenLength {
		return &ValidationError{Field: "sync_token", Message: "wrong length"}
	}
	if _, err := base64.StdEncoding.DecodeString(r.SyncToken); err != nil {
		return &ValidationError{Field: "sync_token", Message: "not base64"}
	}
	if len(r.Puts) > MaxPuts {
		return &ValidationError{Field: "puts", Message: fmt.Sprintf("at most %d puts are allowed", MaxPuts)}
	}

	seen := map[string]bool{}
	for _, p := range r.Puts {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return &ValidationError{Field: "puts", Message: fmt.Sprintf("duplicate id %s", p.ID)}
		}
		seen[p.ID] = true
	}

	return nil
}

// SyncResponse is the result of a sync call
type SyncResponse struct {
	Puts      []Put `json:"puts"`
	Conflicts []Put `json:"conflicts"`
	SyncedTo  int64 `json:"synced_to"`
}

// ErrorResponse is the uniform failure envelope
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// EventsResponse is the result of waiting for change notifications
type EventsResponse struct {
	Changed []string `json:"changed"`
}
