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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/merge"
	"github.com/inkvault/inkvault/pkg/record"
)

const excerptLength = 60

const timeLayout = "Jan 2, 2006 3:04pm (MST)"

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Format(timeLayout)
}

// ContentText renders the content as the text shown in the editor
func ContentText(c record.Content) string {
	if c.Type == record.ContentList {
		return ui.FormatItems(c.Items)
	}

	return c.Text
}

// Document renders the title and content of a record as plain text
func Document(r record.Record) string {
	if r.IsDeleted() {
		return "(deleted)\n"
	}

	var sb strings.Builder
	if r.Payload.Title != "" {
		sb.WriteString("# ")
		sb.WriteString(r.Payload.Title)
		sb.WriteString("\n\n")
	}
	if r.Payload.Protected() {
		sb.WriteString("(protected)\n")
	} else {
		sb.WriteString(ContentText(r.Payload.Content))
	}

	return sb.String()
}

func summary(r record.Record) string {
	if r.IsDeleted() {
		return "(deleted)"
	}
	if r.Payload.Title != "" {
		return r.Payload.Title
	}
	if r.Payload.Protected() {
		return "(protected)"
	}
	if r.Payload.File != nil {
		return r.Payload.File.Name
	}

	return utils.Excerpt(ContentText(r.Payload.Content), excerptLength)
}

// Row prints a one line summary of a record
func Row(w io.Writer, r record.Record) {
	var flags []string
	if r.IsDirty() {
		flags = append(flags, "unsynced")
	}
	if !r.IsDeleted() {
		if r.Payload.Archived {
			flags = append(flags, "archived")
		}
		if r.Payload.Protected() {
			flags = append(flags, "protected")
		}
		for _, l := range r.Payload.Labels {
			flags = append(flags, "#"+l)
		}
	}

	var suffix string
	if len(flags) > 0 {
		suffix = " " + log.ColorGray.Sprintf("(%s)", strings.Join(flags, ", "))
	}

	fmt.Fprintf(w, "(%s) %-5s %s%s\n", log.ColorYellow.Sprint(utils.ShortID(r.ID)), r.Kind, summary(r), suffix)
}

// Info prints the metadata and the content of a record
func Info(w io.Writer, r record.Record) {
	fmt.Fprintf(w, "id: %s\n", r.ID)
	fmt.Fprintf(w, "kind: %s\n", r.Kind)
	fmt.Fprintf(w, "version: %d (%s)\n", r.Version, r.State)
	fmt.Fprintf(w, "created at: %s\n", formatTime(r.CreatedAt))
	if r.UpdatedAt != r.CreatedAt {
		fmt.Fprintf(w, "updated at: %s\n", formatTime(r.UpdatedAt))
	}
	if r.IsDeleted() {
		fmt.Fprintf(w, "deleted at: %s\n", formatTime(r.DeletedAt))
		return
	}

	p := r.Payload
	if len(p.Labels) > 0 {
		fmt.Fprintf(w, "labels: %s\n", strings.Join(p.Labels, ", "))
	}
	if p.Color != "" {
		fmt.Fprintf(w, "color: %s\n", p.Color)
	}
	if p.File != nil {
		fmt.Fprintf(w, "file: %s (%s, %d bytes)\n", p.File.Name, p.File.MimeType, p.File.Size)
	}

	fmt.Fprintf(w, "\n------------------------content------------------------\n")
	fmt.Fprintf(w, "%s", Document(r))
	fmt.Fprintf(w, "\n-------------------------------------------------------\n")
}

// Conflict prints a conflict waiting for manual resolution
func Conflict(w io.Writer, c syncer.Conflict) {
	fmt.Fprintf(w, "%s %s\n", log.ColorYellow.Sprint(utils.ShortID(c.ID)), c.Reason)
	fmt.Fprintf(w, "  local:  version %d, updated %s\n", c.Local.Version, formatTime(c.Local.UpdatedAt))
	fmt.Fprintf(w, "  server: version %d, updated %s\n\n", c.Remote.Version, formatTime(c.Remote.UpdatedAt))
	fmt.Fprintf(w, "%s\n", merge.ConflictReport(Document(c.Local), Document(c.Remote)))
}

// SyncResult prints the outcome of a sync round
func SyncResult(res syncer.Result) {
	log.Successf("pushed %d, pulled %d, merged %d\n", res.Pushed, res.Pulled, res.Merged)

	if len(res.Failed) > 0 {
		log.Warnf("%d local records could not be encrypted\n", len(res.Failed))
		for _, id := range res.Failed {
			log.Debug("failed record %s\n", id)
		}
	}
	if len(res.Unreadable) > 0 {
		log.Warnf("%d records from the server could not be decrypted. Run `inkvault sync --full` to fetch them again\n", len(res.Unreadable))
		for _, id := range res.Unreadable {
			log.Debug("unreadable record %s\n", id)
		}
	}
	if res.Remaining > 0 {
		log.Warnf("%d changes are left for the next sync\n", res.Remaining)
	}
	if len(res.Conflicts) > 0 {
		log.Warnf("%d conflicts need your decision. Run `inkvault conflicts` to review them\n", len(res.Conflicts))
	}
}
