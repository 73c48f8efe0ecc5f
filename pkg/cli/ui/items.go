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

package ui

import (
	"strings"

	"github.com/inkvault/inkvault/pkg/record"
)

const (
	boxOpen = "[ ] "
	boxDone = "[x] "
)

// FormatItems renders todo items as a markdown checklist
func FormatItems(items []record.Item) string {
	var sb strings.Builder

	for _, item := range items {
		sb.WriteString("- ")
		if item.Done {
			sb.WriteString(boxDone)
		} else {
			sb.WriteString(boxOpen)
		}
		sb.WriteString(item.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}

func parseLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")

	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, boxDone):
		return strings.TrimSpace(line[len(boxDone):]), true
	case strings.HasPrefix(lower, boxOpen):
		return strings.TrimSpace(line[len(boxOpen):]), false
	}

	return line, false
}

// ParseItems parses a checklist into todo items. A line keeps the id of the
// first unused previous item with the same text, so that unchanged items
// stay identical across edits. newID is called for every other line.
func ParseItems(text string, prev []record.Item, now int64, newID func() string) []record.Item {
	used := make([]bool, len(prev))

	ret := []record.Item{}
	for _, line := range strings.Split(text, "\n") {
		itemText, done := parseLine(line)
		if itemText == "" {
			continue
		}

		item := record.Item{ID: "", Text: itemText, Done: done, UpdatedAt: now}
		for i, p := range prev {
			if used[i] || p.Text != itemText {
				continue
			}

			used[i] = true
			item.ID = p.ID
			if p.Done == done {
				item.UpdatedAt = p.UpdatedAt
			}
			break
		}
		if item.ID == "" {
			item.ID = newID()
		}

		ret = append(ret, item)
	}

	return ret
}
