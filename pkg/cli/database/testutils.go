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
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MustScan scans the given row and fails a test in case of any errors
func MustScan(t *testing.T, message string, row *sql.Row, args ...interface{}) {
	err := row.Scan(args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "scanning a row"), message))
	}
}

// MustExec executes the given SQL query and fails a test if an error occurs
func MustExec(t *testing.T, message string, db *DB, query string, args ...interface{}) sql.Result {
	result, err := db.Exec(query, args...)
	if err != nil {
		t.Fatal(errors.Wrap(errors.Wrap(err, "executing sql"), message))
	}

	return result
}

func mustMigrate(t *testing.T, db *DB) {
	if _, err := Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "running migrations"))
	}
}

// InitTestMemoryDB initializes a migrated in-memory test database
func InitTestMemoryDB(t *testing.T) *DB {
	db := InitTestMemoryDBRaw(t)
	mustMigrate(t, db)

	return db
}

// InitTestMemoryDBRaw initializes an in-memory test database without running migrations
func InitTestMemoryDBRaw(t *testing.T) *DB {
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening in-memory database"))
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// InitTestFileDB initializes a migrated file-based test database and returns its path
func InitTestFileDB(t *testing.T) (*DB, string) {
	dbPath := filepath.Join(t.TempDir(), fmt.Sprintf("inkvault-%s.db", uuid.New().String()))

	db, err := Open(FileDSN(dbPath))
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening database"))
	}
	t.Cleanup(func() { db.Close() })

	mustMigrate(t, db)

	return db, dbPath
}

// InitTestStore returns a store on a migrated in-memory test database
func InitTestStore(t *testing.T) (*Store, *DB) {
	db := InitTestMemoryDB(t)

	return NewStore(db), db
}
