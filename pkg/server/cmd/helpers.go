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

package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/config"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/notify"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const dbDSNUsage = "Database DSN; a file path for sqlite (env: DB_DSN, default: $XDG_DATA_HOME/inkvault/server.db)"
const dbDriverUsage = "Database driver: sqlite or postgres (env: DB_DRIVER, default: sqlite)"

// loadEnv reads a .env file in the working directory if one exists.
// Variables already set in the environment take precedence.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "loading .env")
	}

	return nil
}

func initDB(cfg config.Config) *gorm.DB {
	db := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.LogLevel)
	database.InitSchema(db)
	if err := database.Migrate(db); err != nil {
		panic(errors.Wrap(err, "running migrations"))
	}

	return db
}

func initApp(cfg config.Config, notifier notify.Notifier) app.App {
	db := initDB(cfg)

	return app.App{
		DB:                  db,
		Clock:               clock.New(),
		Notifier:            notifier,
		QuotaBytes:          cfg.QuotaBytes,
		SessionTTL:          cfg.SessionTTL,
		DisableRegistration: cfg.DisableRegistration,
		AppEnv:              cfg.AppEnv,
		Port:                cfg.Port,
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// printFlags prints flags with -- prefix for consistency with CLI
func printFlags(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		fmt.Printf("  --%s", f.Name)

		name, usage := flag.UnquoteUsage(f)
		if name != "" {
			fmt.Printf(" %s", name)
		}
		fmt.Println()

		if usage != "" {
			fmt.Printf("    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
				fmt.Printf(" (default: %s)", f.DefValue)
			}
			fmt.Println()
		}
	})
}

// setupFlagSet creates a FlagSet with standard usage format
func setupFlagSet(name, usageCmd string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Printf(`Usage:
  %s [flags]

Flags:
`, usageCmd)
		printFlags(fs)
	}
	return fs
}

// requireString validates that a required string flag is not empty
func requireString(fs *flag.FlagSet, value, fieldName string) {
	if value == "" {
		fmt.Printf("Error: %s is required\n", fieldName)
		fs.Usage()
		os.Exit(1)
	}
}

// dbFlags are the flags shared by the commands that open the database
type dbFlags struct {
	driver *string
	dsn    *string
}

func addDBFlags(fs *flag.FlagSet) dbFlags {
	return dbFlags{
		driver: fs.String("dbDriver", "", dbDriverUsage),
		dsn:    fs.String("dbDsn", "", dbDSNUsage),
	}
}

// setupAppWithDB creates config, initializes app, and returns cleanup function
func setupAppWithDB(fs *flag.FlagSet, f dbFlags) (*app.App, func()) {
	cfg, err := config.New(config.Params{
		DBDriver: *f.driver,
		DBDSN:    *f.dsn,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	a := initApp(cfg, nil)
	cleanup := func() {
		closeDB(a.DB)
	}

	return &a, cleanup
}
