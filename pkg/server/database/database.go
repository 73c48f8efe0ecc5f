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

// Package database defines the server persistence layer
package database

import (
	"os"
	"path/filepath"

	"github.com/inkvault/inkvault/pkg/server/log"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverSQLite is the name of the SQLite driver
	DriverSQLite = "sqlite"
	// DriverPostgres is the name of the PostgreSQL driver
	DriverPostgres = "postgres"
)

// InitSchema migrates database schema to reflect the latest model definition
func InitSchema(db *gorm.DB) {
	if err := db.AutoMigrate(
		&User{},
		&Record{},
		&Session{},
	); err != nil {
		panic(err)
	}
}

// getDBLogLevel maps the application log level to the gorm log level.
// Queries are only logged in debug mode.
func getDBLogLevel(level string) logger.LogLevel {
	switch level {
	case log.LevelDebug:
		return logger.Info
	case log.LevelWarn:
		return logger.Warn
	case log.LevelError:
		return logger.Error
	default:
		return logger.Silent
	}
}

func getDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite, "":
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "creating database directory at %s", dir)
		}

		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        dsn,
		}), nil
	}

	return nil, errors.Errorf("unsupported database driver '%s'", driver)
}

// Open initializes the database connection
func Open(driver, dsn, logLevel string) *gorm.DB {
	dialector, err := getDialector(driver, dsn)
	if err != nil {
		panic(err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(getDBLogLevel(logLevel)),
	})
	if err != nil {
		panic(errors.Wrap(err, "opening database conection"))
	}

	return db
}

// Checkpoint truncates the write-ahead log of a SQLite database so that it
// does not grow unbounded. It is a no-op for other databases.
func Checkpoint(db *gorm.DB) error {
	if db.Dialector.Name() != DriverSQLite {
		return nil
	}

	if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return errors.Wrap(err, "checkpointing wal")
	}

	return nil
}
