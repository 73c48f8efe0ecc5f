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
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/inkvault/inkvault/pkg/server/database/migrations"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// migrationTable records the versions of the applied migrations
const migrationTable = "schema_migrations"

var migrationFilename = regexp.MustCompile(`^(\d{3})-([a-z0-9][a-z0-9-]*)\.sql$`)

type migration struct {
	name    string
	version int
}

func parseMigrationName(name string) (migration, error) {
	m := migrationFilename.FindStringSubmatch(name)
	if m == nil {
		return migration{}, errors.Errorf("invalid migration filename '%s': must be NNN-description.sql", name)
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return migration{}, errors.Wrapf(err, "parsing version of %s", name)
	}

	return migration{name: name, version: v}, nil
}

// listMigrations returns the migrations in fsys sorted by version
func listMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}

	ret := []migration{}
	byVersion := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		m, err := parseMigrationName(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, ok := byVersion[m.version]; ok {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", m.version, prev, m.name)
		}
		byVersion[m.version] = m.name

		ret = append(ret, m)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].version < ret[j].version
	})

	return ret, nil
}

// Migrate applies the embedded SQL migrations that have not run yet
func Migrate(db *gorm.DB) error {
	return migrate(db, migrations.Files)
}

func migrate(db *gorm.DB, fsys fs.FS) error {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		return errors.Wrap(err, "creating migration table")
	}

	var current int
	if err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM " + migrationTable).Scan(&current).Error; err != nil {
		return errors.Wrap(err, "reading schema version")
	}

	pending, err := listMigrations(fsys)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": current,
	}).Info("Database schema version.")

	for _, m := range pending {
		if m.version <= current {
			continue
		}

		body, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return errors.Wrapf(err, "reading %s", m.name)
		}
		if strings.TrimSpace(string(body)) == "" {
			return errors.Errorf("migration %s is empty", m.name)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(body)).Error; err != nil {
				return errors.Wrapf(err, "running %s", m.name)
			}
			if err := tx.Exec("INSERT INTO "+migrationTable+" (version) VALUES (?)", m.version).Error; err != nil {
				return errors.Wrapf(err, "recording %s", m.name)
			}

			return nil
		})
		if err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"file": m.name,
		}).Info("Applied migration.")
	}

	return nil
}
