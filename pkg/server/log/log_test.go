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

package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestShouldLog(t *testing.T) {
	defer SetLevel(LevelInfo)

	testCases := []struct {
		currentLevel string
		logLevel     string
		expected     bool
	}{
		{LevelDebug, LevelDebug, true},
		{LevelDebug, LevelError, true},
		{LevelInfo, LevelDebug, false},
		{LevelInfo, LevelInfo, true},
		{LevelInfo, LevelWarn, true},
		{LevelWarn, LevelInfo, false},
		{LevelWarn, LevelError, true},
		{LevelError, LevelWarn, false},
		{LevelError, LevelError, true},
		{"bogus", LevelDebug, false},
		{"bogus", LevelInfo, true},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			SetLevel(tc.currentLevel)
			if got := shouldLog(tc.logLevel); got != tc.expected {
				t.Errorf("level %s logging %s: expected %v, got %v", tc.currentLevel, tc.logLevel, tc.expected, got)
			}
		})
	}
}

func TestEntryWrite(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	SetLevel(LevelInfo)
	WithFields(Fields{"account": 7}).Debug("hidden")
	WithFields(Fields{"account": 7, "cause": errors.New("boom")}).Info("sync done")
	ErrorWrap(errors.New("disk full"), "saving")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if first["msg"] != "sync done" || first["level"] != "info" || first["cause"] != "boom" {
		t.Errorf("unexpected entry %v", first)
	}
	if first["account"] != float64(7) {
		t.Errorf("unexpected account %v", first["account"])
	}

	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if second["error"] != "disk full" || second["level"] != "error" {
		t.Errorf("unexpected entry %v", second)
	}
}
