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

package database

import (
	"testing"

	"github.com/inkvault/inkvault/pkg/assert"
)

func TestMigrate(t *testing.T) {
	db := InitTestMemoryDBRaw(t)

	n, err := Migrate(db)
	assert.NilErr(t, err, "migrating")
	assert.Equal(t, n, 2, "applied count mismatch")

	for _, table := range []string{"records", "base_snapshots", "system", "conflicts"} {
		var count int
		MustScan(t, table, db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table), &count)
		assert.Equal(t, count, 1, table+" should exist")
	}

	// running again is a no-op
	n, err = Migrate(db)
	assert.NilErr(t, err, "migrating again")
	assert.Equal(t, n, 0, "second run should apply nothing")
}
