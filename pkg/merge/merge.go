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

// Package merge resolves conflicting versions of a record. It attempts a
// deterministic three-way merge and escalates to the user when it cannot
// merge safely.
package merge

import (
	"github.com/inkvault/inkvault/pkg/record"
)

// Reasons for escalating a conflict to the user
const (
	ReasonKindMismatch    = "record types differ"
	ReasonDeletion        = "deleted on one side and edited on the other"
	ReasonContentMismatch = "content types differ"
	ReasonNoBase          = "no common ancestor to merge from"
	ReasonOverlap         = "both sides edited the same region"
	ReasonListDiverged    = "list items diverged"
	ReasonLocked          = "protected content diverged"
)

// Result is the outcome of a merge
type Result struct {
	Record    record.Record
	Escalated bool
	Reason    string
}

func escalate(reason string) Result {
	return Result{Escalated: true, Reason: reason}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}

func itemsEqual(a, b []record.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func contentEqual(a, b record.Content) bool {
	return a.Type == b.Type && a.Text == b.Text && itemsEqual(a.Items, b.Items)
}

// sameItemSet checks if the two lists contain the same items by id and
// modification time, regardless of order
func sameItemSet(a, b []record.Item) bool {
	if len(a) != len(b) {
		return false
	}

	m := make(map[string]int64, len(a))
	for _, item := range a {
		m[item.ID] = item.UpdatedAt
	}
	for _, item := range b {
		ts, ok := m[item.ID]
		if !ok || ts != item.UpdatedAt {
			return false
		}
	}

	return len(m) == len(b)
}

func baseText(base *record.Record) (string, bool) {
	if base == nil || base.IsDeleted() || base.Payload == nil {
		return "", false
	}
	if base.Payload.Protected() || base.Payload.Content.Type != record.ContentText {
		return "", false
	}

	return base.Payload.Content.Text, true
}

// mergeContent merges the content of the two payloads. The side with the later
// updated_at wins when either copy is acceptable.
func mergeContent(base *record.Record, local, remote record.Record) (record.Payload, string) {
	lp, rp := local.Payload, remote.Payload
	ret := rp.Clone()

	if lp.Protected() || rp.Protected() {
		if lp.Protected() && rp.Protected() && *lp.Locked == *rp.Locked {
			return ret, ""
		}

		return ret, ReasonLocked
	}

	if lp.Content.Type != rp.Content.Type {
		return ret, ReasonContentMismatch
	}
	if contentEqual(lp.Content, rp.Content) {
		return ret, ""
	}

	switch rp.Content.Type {
	case record.ContentList:
		if !sameItemSet(lp.Content.Items, rp.Content.Items) {
			return ret, ReasonListDiverged
		}
		if local.UpdatedAt > remote.UpdatedAt {
			ret.Content = lp.Clone().Content
		}

		return ret, ""
	default:
		bt, ok := baseText(base)
		if !ok {
			return ret, ReasonNoBase
		}

		merged, ok := mergeText(bt, lp.Content.Text, rp.Content.Text)
		if !ok {
			return ret, ReasonOverlap
		}
		ret.Content.Text = merged

		return ret, ""
	}
}

// mergeScalars resolves the fields outside the content by last writer wins
func mergeScalars(dst *record.Payload, local, remote record.Record) {
	if local.UpdatedAt <= remote.UpdatedAt {
		return
	}

	lp := local.Payload.Clone()
	dst.Title = lp.Title
	dst.Archived = lp.Archived
	dst.Labels = lp.Labels
	dst.Color = lp.Color
	dst.File = lp.File
}

// Merge merges the local dirty copy of a record with the conflicting server
// copy. base is the last copy both sides agreed on and may be nil. A merged
// record is dirty, timestamped now and versioned above both sides.
func Merge(base *record.Record, local, remote record.Record, now int64) Result {
	if local.Kind != remote.Kind {
		return escalate(ReasonKindMismatch)
	}
	if local.IsDeleted() != remote.IsDeleted() {
		return escalate(ReasonDeletion)
	}

	ret := record.Record{
		ID:        remote.ID,
		Kind:      remote.Kind,
		CreatedAt: remote.CreatedAt,
		UpdatedAt: now,
		Version:   maxInt(local.Version, remote.Version) + 1,
		State:     record.StateDirty,
	}

	if remote.IsDeleted() {
		ret.DeletedAt = maxInt64(local.DeletedAt, remote.DeletedAt)
		return Result{Record: ret}
	}

	if local.Payload == nil {
		local.Payload = &record.Payload{}
	}
	if remote.Payload == nil {
		remote.Payload = &record.Payload{}
	}

	p, reason := mergeContent(base, local, remote)
	if reason != "" {
		return escalate(reason)
	}
	mergeScalars(&p, local, remote)
	ret.Payload = &p

	return Result{Record: ret}
}

// Choice is a side picked by the user for a conflict that could not be merged
type Choice string

const (
	// KeepLocal keeps the local copy
	KeepLocal Choice = "local"
	// KeepRemote keeps the server copy
	KeepRemote Choice = "remote"
)

// Valid checks if the choice is known
func (c Choice) Valid() bool {
	return c == KeepLocal || c == KeepRemote
}

// Resolve builds the record to resubmit after the user picked a side
func Resolve(choice Choice, local, remote record.Record, now int64) record.Record {
	var ret record.Record
	if choice == KeepLocal {
		ret = local.Clone()
	} else {
		ret = remote.Clone()
	}

	ret.Version = maxInt(local.Version, remote.Version) + 1
	ret.UpdatedAt = now
	ret.State = record.StateDirty

	return ret
}
