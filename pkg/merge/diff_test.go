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
	"fmt"
	"strings"
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
	"pgregory.net/rapid"
)

func TestConflictReport(t *testing.T) {
	testCases := []struct {
		local    string
		server   string
		expected string
	}{
		{
			local:    "",
			server:   "",
			expected: "",
		},
		{
			local:    "foo\nbar",
			server:   "foo\nbar",
			expected: "foo\nbar",
		},
		{
			local:  "foo-local",
			server: "foo-server",
			expected: `<<<<<<< Local
foo-local
=======
foo-server
>>>>>>> Server
`,
		},
		{
			local:  "foo\n",
			server: "\n",
			expected: `<<<<<<< Local
foo
=======

>>>>>>> Server
`,
		},
		{
			local:  "foo\n\nquz\nbaz\n",
			server: "foo\n\nbar\nbaz\n",
			expected: `foo

<<<<<<< Local
quz
=======
bar
>>>>>>> Server
baz
`,
		},
		{
			local:  "foo\nbaz\n",
			server: "foo\nbar\nbaz\n",
			expected: `foo
<<<<<<< Local
=======
bar
>>>>>>> Server
baz
`,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			got := ConflictReport(tc.local, tc.server)
			assert.Equal(t, got, tc.expected, "result mismatch")
		})
	}
}

func TestMergeText(t *testing.T) {
	testCases := []struct {
		base     string
		local    string
		remote   string
		expected string
		ok       bool
	}{
		{
			base:     "hello",
			local:    "hello world",
			remote:   "hello there",
			expected: "hello world there",
			ok:       true,
		},
		{
			base:     "first line\nsecond line\nthird line\n",
			local:    "first line edited\nsecond line\nthird line\n",
			remote:   "first line\nsecond line\nthird line edited\n",
			expected: "first line edited\nsecond line\nthird line edited\n",
			ok:       true,
		},
		{
			base:     "same",
			local:    "same",
			remote:   "changed",
			expected: "changed",
			ok:       true,
		},
		{
			base:     "a shared edit",
			local:    "a shared edit!",
			remote:   "a shared edit!",
			expected: "a shared edit!",
			ok:       true,
		},
		{
			base:   "the quick brown fox",
			local:  "the quick red fox",
			remote: "the quick blue fox",
			ok:     false,
		},
		{
			base:   "delete me please",
			local:  "",
			remote: "delete me now please",
			ok:     false,
		},
		{
			base:     "日本語のテキスト",
			local:    "日本語のテキストです",
			remote:   "新しい日本語のテキスト",
			expected: "新しい日本語のテキストです",
			ok:       true,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			got, ok := mergeText(tc.base, tc.local, tc.remote)

			assert.Equal(t, ok, tc.ok, "ok mismatch")
			if tc.ok {
				assert.Equal(t, got, tc.expected, "result mismatch")
			}
		})
	}
}

func TestMergeText_property(t *testing.T) {
	alphabet := rapid.StringOfN(rapid.RuneFrom([]rune("ab \n")), 0, 40, -1)

	t.Run("deterministic", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			base := alphabet.Draw(t, "base")
			local := alphabet.Draw(t, "local")
			remote := alphabet.Draw(t, "remote")

			m1, ok1 := mergeText(base, local, remote)
			m2, ok2 := mergeText(base, local, remote)
			if ok1 != ok2 || m1 != m2 {
				t.Fatalf("non deterministic merge: (%q, %v) vs (%q, %v)", m1, ok1, m2, ok2)
			}
		})
	})

	t.Run("unchanged side takes the other", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			base := alphabet.Draw(t, "base")
			remote := alphabet.Draw(t, "remote")

			got, ok := mergeText(base, base, remote)
			if !ok || got != remote {
				t.Fatalf("expected %q, got (%q, %v)", remote, got, ok)
			}

			got, ok = mergeText(base, remote, base)
			if !ok || got != remote {
				t.Fatalf("expected %q, got (%q, %v)", remote, got, ok)
			}
		})
	})

	t.Run("disjoint appends merge", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			base := "\n" + alphabet.Draw(t, "base") + "\n"
			prefix := strings.TrimSpace(alphabet.Draw(t, "prefix"))
			suffix := strings.TrimSpace(alphabet.Draw(t, "suffix"))

			got, ok := mergeText(base, prefix+base, base+suffix)
			if !ok || got != prefix+base+suffix {
				t.Fatalf("expected %q, got (%q, %v)", prefix+base+suffix, got, ok)
			}
		})
	})
}
