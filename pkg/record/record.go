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

// Package record defines the unit of synchronization and its local lifecycle
package record

import (
	"github.com/inkvault/inkvault/pkg/crypt"
)

// Kind is the type of a record
type Kind string

const (
	// KindNote is a text note
	KindNote Kind = "note"
	// KindTodo is a todo list
	KindTodo Kind = "todo"
	// KindLabel is a label that can be attached to notes
	KindLabel Kind = "label"
	// KindFile is the metadata of an attached file
	KindFile Kind = "file"
)

// Valid checks if the kind is one of the known kinds
func (k Kind) Valid() bool {
	switch k {
	case KindNote, KindTodo, KindLabel, KindFile:
		return true
	}

	return false
}

// State is the local lifecycle state of a record
type State string

const (
	// StateDirty means the local copy has unacknowledged edits
	StateDirty State = "dirty"
	// StateSynced means the local copy matches the last acknowledged server copy
	StateSynced State = "synced"
)

// ContentType is the structural type of the content of a record
type ContentType string

const (
	// ContentText is free text
	ContentText ContentType = "text"
	// ContentList is a flat list of identified items
	ContentList ContentType = "list"
)

// Item is an entry of a list
type Item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	UpdatedAt int64  `json:"updated_at"`
}

// Content is the mergeable body of a record
type Content struct {
	Type  ContentType `json:"type"`
	Text  string      `json:"text,omitempty"`
	Items []Item      `json:"items,omitempty"`
}

// FileMeta describes an attached file. The blob itself is stored elsewhere.
type FileMeta struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Hash     string `json:"hash"`
}

// Payload is the plaintext body of a record
type Payload struct {
	Title    string    `json:"title,omitempty"`
	Content  Content   `json:"content"`
	Archived bool      `json:"archived,omitempty"`
	Labels   []string  `json:"labels,omitempty"`
	Color    string    `json:"color,omitempty"`
	File     *FileMeta `json:"file,omitempty"`
	// Locked holds the content sealed under the vault key for protected records.
	// Content is empty whenever Locked is set.
	Locked *crypt.Sealed `json:"locked,omitempty"`
}

// Protected returns true if the content is sealed under the vault key
func (p Payload) Protected() bool {
	return p.Locked != nil
}

// IsEmpty returns true if the payload carries nothing worth syncing
func (p Payload) IsEmpty() bool {
	return p.Title == "" &&
		p.Content.Text == "" &&
		len(p.Content.Items) == 0 &&
		len(p.Labels) == 0 &&
		p.File == nil &&
		p.Locked == nil
}

// Clone returns a deep copy of the payload
func (p Payload) Clone() Payload {
	ret := p

	if p.Content.Items != nil {
		ret.Content.Items = make([]Item, len(p.Content.Items))
		copy(ret.Content.Items, p.Content.Items)
	}
	if p.Labels != nil {
		ret.Labels = make([]string, len(p.Labels))
		copy(ret.Labels, p.Labels)
	}
	if p.File != nil {
		f := *p.File
		ret.File = &f
	}
	if p.Locked != nil {
		l := *p.Locked
		ret.Locked = &l
	}

	return ret
}

// Record is the unit of synchronization
type Record struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
	Version   int      `json:"version"`
	DeletedAt int64    `json:"deleted_at"`
	Payload   *Payload `json:"payload,omitempty"`
	State     State    `json:"state"`
}

// New returns a new dirty record
func New(id string, kind Kind, p Payload, now int64) Record {
	return Record{
		ID:        id,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
		Payload:   &p,
		State:     StateDirty,
	}
}

// IsDeleted returns true if the record is a tombstone
func (r Record) IsDeleted() bool {
	return r.DeletedAt != 0
}

// IsDirty returns true if the record has unacknowledged edits
func (r Record) IsDirty() bool {
	return r.State == StateDirty
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	ret := r
	if r.Payload != nil {
		p := r.Payload.Clone()
		ret.Payload = &p
	}

	return ret
}

// touch marks the record as modified locally. Edits on a dirty record
// coalesce into its current version until the next successful sync.
func (r Record) touch(now int64) Record {
	if r.State == StateSynced {
		r.Version++
	}
	r.State = StateDirty
	r.UpdatedAt = now

	return r
}

// Edit returns the record with the given payload applied as a local mutation
func (r Record) Edit(p Payload, now int64) Record {
	ret := r.Clone().touch(now)
	ret.Payload = &p

	return ret
}

// Delete returns the record turned into a tombstone as a local mutation
func (r Record) Delete(now int64) Record {
	ret := r.touch(now)
	ret.Payload = nil
	ret.DeletedAt = now

	return ret
}

// Synced returns the record marked as matching the server copy
func (r Record) Synced() Record {
	ret := r.Clone()
	ret.State = StateSynced

	return ret
}
