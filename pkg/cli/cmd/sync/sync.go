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

package sync

import (
	stdcontext "context"
	"os"
	"os/signal"
	"strconv"

	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  inkvault sync

  * Pull every record from the server again
  inkvault sync --full`

var isFullSync bool
var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync data with the server",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&isFullSync, "full", "f", false, "perform a full sync instead of incrementally syncing only the changed data.")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Describe turns the errors of a sync round into a message for the user
func Describe(err error) error {
	switch errors.Cause(err) {
	case syncer.ErrNotLoggedIn:
		return errors.New("not logged in. Run `inkvault login` first")
	case syncer.ErrUnauthorized:
		return errors.New("the server rejected the session or the encryption passphrase. Run `inkvault login` again")
	case syncer.ErrQuotaExceeded:
		return errors.New("the storage quota of the account is exceeded. Nothing was uploaded")
	}

	return err
}

// Do syncs until every dirty record was offered to the server once. With
// full, the cursor is reset so that every server record is pulled again.
func Do(c stdcontext.Context, ctx context.InkvaultCtx, full bool) (syncer.Result, error) {
	if full {
		err := ctx.Store.Update(func(tx syncer.Tx) error {
			return tx.SetCursor(0)
		})
		if err != nil {
			return syncer.Result{}, errors.Wrap(err, "resetting the sync cursor")
		}
	}

	o := ctx.Orchestrator(nil)

	var total syncer.Result
	for {
		res, err := o.SyncNotes(c)
		if err != nil {
			return total, err
		}

		total.Pushed += res.Pushed
		total.Pulled += res.Pulled
		total.Merged += res.Merged
		total.Conflicts = append(total.Conflicts, res.Conflicts...)
		total.Failed = append(total.Failed, res.Failed...)
		total.Unreadable = append(total.Unreadable, res.Unreadable...)
		total.Remaining = res.Remaining
		total.SyncedTo = res.SyncedTo

		if res.Remaining == 0 {
			break
		}
		log.Debug("%d records remaining\n", res.Remaining)
	}

	if err := database.UpsertSystem(ctx.DB, consts.SystemLastSyncAt, strconv.FormatInt(ctx.Now(), 10)); err != nil {
		return total, errors.Wrap(err, "saving the last sync time")
	}

	return total, nil
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		c, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt)
		defer stop()

		res, err := Do(c, ctx, isFullSync)
		if err != nil {
			return Describe(err)
		}

		output.SyncResult(res)

		return nil
	}
}
