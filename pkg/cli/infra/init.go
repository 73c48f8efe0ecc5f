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

// Package infra provides operations and definitions for the
// local infrastructure for Inkvault
package infra

import (
	"os"
	"strconv"

	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/config"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of inkvault commands
type RunEFunc func(*cobra.Command, []string) error

// newBaseCtx creates a minimal context with paths and database connection.
// This base context is used for file and database initialization before
// being enriched with config values by setupCtx.
func newBaseCtx(versionTag, customDBPath string) (context.InkvaultCtx, error) {
	paths := context.Paths{
		Config: dirs.ConfigDir(),
		Data:   dirs.DataDir(),
	}

	if err := context.InitDirs(paths); err != nil {
		return context.InkvaultCtx{}, errors.Wrap(err, "creating the inkvault dirs")
	}

	dbPath := customDBPath
	if dbPath == "" {
		dbPath = context.DBPath(paths)
	}

	db, err := database.Open(database.FileDSN(dbPath))
	if err != nil {
		return context.InkvaultCtx{}, errors.Wrap(err, "connecting to db")
	}

	ctx := context.InkvaultCtx{
		Paths:   paths,
		Version: versionTag,
		DBPath:  dbPath,
		DB:      db,
	}

	return ctx, nil
}

// Init initializes the Inkvault environment and returns a new inkvault context.
// A non-empty apiEndpoint overrides the endpoint of the config file.
func Init(versionTag, apiEndpoint, dbPath string) (*context.InkvaultCtx, error) {
	ctx, err := newBaseCtx(versionTag, dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "initializing a context")
	}

	if err := initConfigFile(ctx); err != nil {
		return nil, errors.Wrap(err, "generating the config file")
	}

	if _, err := database.Migrate(ctx.DB); err != nil {
		return nil, errors.Wrap(err, "initializing database")
	}
	if err := InitSystem(ctx); err != nil {
		return nil, errors.Wrap(err, "initializing system data")
	}

	ctx, err = setupCtx(ctx, apiEndpoint)
	if err != nil {
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// setupCtx enriches the base context with values from config file and database.
// This is called after files and database have been initialized.
func setupCtx(ctx context.InkvaultCtx, apiEndpoint string) (context.InkvaultCtx, error) {
	db := ctx.DB

	sessionKey, err := database.GetSystemOr(db, consts.SystemSessionKey, "")
	if err != nil {
		return ctx, errors.Wrap(err, "finding session key")
	}
	expiry, err := database.GetSystemOr(db, consts.SystemSessionKeyExpiry, "0")
	if err != nil {
		return ctx, errors.Wrap(err, "finding session key expiry")
	}
	sessionKeyExpiry, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return ctx, errors.Wrap(err, "parsing session key expiry")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return ctx, errors.Wrap(err, "reading config")
	}
	timeout, err := cf.Timeout()
	if err != nil {
		return ctx, errors.Wrap(err, "reading syncTimeout")
	}
	schedule, err := cf.Schedule()
	if err != nil {
		return ctx, errors.Wrap(err, "reading syncSchedule")
	}

	endpoint := cf.APIEndpoint
	if apiEndpoint != "" {
		endpoint = apiEndpoint
	}
	if endpoint == "" {
		endpoint = config.DefaultAPIEndpoint
	}

	ret := context.InkvaultCtx{
		Paths:            ctx.Paths,
		Version:          ctx.Version,
		DBPath:           ctx.DBPath,
		DB:               ctx.DB,
		Store:            database.NewStore(ctx.DB),
		SessionKey:       sessionKey,
		SessionKeyExpiry: sessionKeyExpiry,
		APIEndpoint:      endpoint,
		Editor:           cf.Editor,
		SyncTimeout:      timeout,
		SyncSchedule:     schedule,
		Clock:            clock.New(),
		HTTPClient:       client.NewRateLimitedHTTPClient(),
	}

	return ret, nil
}

func initSystemKV(db *database.DB, key string, val string) error {
	if _, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING", key, val); err != nil {
		return errors.Wrapf(err, "inserting %s %s", key, val)
	}

	return nil
}

// InitSystem inserts system data if missing
func InitSystem(ctx context.InkvaultCtx) error {
	log.Debug("initializing the system\n")

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	defaults := []struct {
		key string
		val string
	}{
		{consts.SystemLastSyncedTo, "0"},
		{consts.SystemLastSyncAt, "0"},
		{consts.SystemLoggedIn, "0"},
	}
	for _, d := range defaults {
		if err := initSystemKV(tx, d.key, d.val); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "initializing system config for %s", d.key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// getEditorCommand returns the system's editor command with appropriate flags,
// if necessary, to make the command wait until editor is close to exit.
func getEditorCommand() string {
	editor := os.Getenv("EDITOR")

	var ret string

	switch editor {
	case "atom":
		ret = "atom -w"
	case "subl":
		ret = "subl -n -w"
	case "code":
		ret = "code -n -w"
	case "mate":
		ret = "mate -w"
	case "vim":
		ret = "vim"
	case "nano":
		ret = "nano"
	case "emacs":
		ret = "emacs"
	case "nvim":
		ret = "nvim"
	default:
		ret = "vi"
	}

	return ret
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(ctx context.InkvaultCtx) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	if err := config.Write(ctx, config.Default(getEditorCommand())); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}
