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

package logout

import (
	stdcontext "context"
	"database/sql"

	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrNotLoggedIn is an error for logging out when not logged in
var ErrNotLoggedIn = errors.New("not logged in")

var example = `
  inkvault logout`

var apiEndpointFlag string

// NewCmd returns a new logout command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Logout from the server",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Do performs logout. The local session is removed even if the server
// already forgot it. The encryption key is kept so that records edited
// while logged out can be synced after the next login.
func Do(c stdcontext.Context, ctx context.InkvaultCtx) error {
	var key string
	err := database.GetSystem(ctx.DB, consts.SystemSessionKey, &key)
	if errors.Cause(err) == sql.ErrNoRows {
		return ErrNotLoggedIn
	} else if err != nil {
		return errors.Wrap(err, "getting session key")
	}

	ctx.SessionKey = key
	err = ctx.Client().Signout(c)
	if err != nil && !client.IsUnauthorized(err) {
		return errors.Wrap(err, "requesting logout")
	}

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := database.DeleteSystem(tx, consts.SystemSessionKey); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting session key")
	}
	if err := database.DeleteSystem(tx, consts.SystemSessionKeyExpiry); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "deleting session key expiry")
	}
	if err := database.UpsertSystem(tx, consts.SystemLoggedIn, "0"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking logged out")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		err := Do(stdcontext.Background(), ctx)
		if err == ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
