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

package merge

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	conflictStart     = "<<<<<<< Local\n"
	conflictSeparator = "=======\n"
	conflictEnd       = ">>>>>>> Server\n"
)

func newDMP() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = time.Hour

	return dmp
}

// diffLines computes line-by-line diff between two strings
func diffLines(s1, s2 string) []diffmatchpatch.Diff {
	dmp := newDMP()

	s1Chars, s2Chars, arr := dmp.DiffLinesToRunes(s1, s2)
	diffs := dmp.DiffMainRunes(s1Chars, s2Chars, false)

	return dmp.DiffCharsToLines(diffs, arr)
}

// hunk is a replacement of the base runes in [start, end) with text
type hunk struct {
	start int
	end   int
	text  string
}

func (h hunk) isInsert() bool {
	return h.start == h.end
}

// hunks returns the edits turning base into other, in base rune offsets
func hunks(base, other string) []hunk {
	dmp := newDMP()
	diffs := dmp.DiffMain(base, other, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var ret []hunk
	var cur *hunk
	pos := 0

	flush := func() {
		if cur != nil {
			ret = append(ret, *cur)
			cur = nil
		}
	}

	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += n
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &hunk{start: pos, end: pos}
			}
			pos += n
			cur.end = pos
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &hunk{start: pos, end: pos}
			}
			cur.text += d.Text
		}
	}
	flush()

	return ret
}

// overlaps checks if two hunks from different sides touch the same base runes.
// Insertions at the same point do not overlap, nor do an insertion and a
// replacement that only share a boundary.
func overlaps(a, b hunk) bool {
	if a.start < b.end && b.start < a.end {
		return true
	}
	if a.isInsert() && b.start < a.start && a.start < b.end {
		return true
	}
	if b.isInsert() && a.start < b.start && b.start < a.end {
		return true
	}

	return false
}

// mergeText performs a three-way merge of text. It returns false if the two
// sides edited overlapping regions of the base.
func mergeText(base, local, remote string) (string, bool) {
	lh := hunks(base, local)
	rh := hunks(base, remote)

	type sided struct {
		hunk
		side int
	}
	var all []sided

	for _, l := range lh {
		all = append(all, sided{l, 0})
	}
	for _, r := range rh {
		dup := false
		for _, l := range lh {
			if l == r {
				dup = true
				break
			}
			if overlaps(l, r) {
				return "", false
			}
		}
		if !dup {
			all = append(all, sided{r, 1})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.isInsert() != b.isInsert() {
			return a.isInsert()
		}
		return a.side < b.side
	})

	runes := []rune(base)
	var sb strings.Builder
	cursor := 0
	for _, h := range all {
		sb.WriteString(string(runes[cursor:h.start]))
		sb.WriteString(h.text)
		cursor = h.end
	}
	sb.WriteString(string(runes[cursor:]))

	return sb.String(), true
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}

func writeConflict(sb *strings.Builder, local, server string) {
	sb.WriteString(conflictStart)
	sb.WriteString(withNewline(local))
	sb.WriteString(conflictSeparator)
	sb.WriteString(withNewline(server))
	sb.WriteString(conflictEnd)
}

// ConflictReport renders the two versions of a text as a single text with
// the differing lines surrounded by conflict markers
func ConflictReport(local, server string) string {
	diffs := diffLines(local, server)

	var sb strings.Builder
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		case diffmatchpatch.DiffDelete:
			var serverText string
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				serverText = diffs[i+1].Text
				i++
			}
			writeConflict(&sb, d.Text, serverText)
		case diffmatchpatch.DiffInsert:
			writeConflict(&sb, "", d.Text)
		}
	}

	return sb.String()
}
