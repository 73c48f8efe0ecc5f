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

package remove

import (
	"os"

	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var yesFlag bool

var example = `
  * Delete a record by id
  inkvault remove 0f5f0054

  * Delete without a confirmation
  inkvault remove 0f5f0054 -y
`

// NewCmd returns a new remove command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Short:   "Remove a record",
		Aliases: []string{"rm", "d", "delete"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	return cmd
}

// Do removes the record with the given id. A record the server has never
// acknowledged is dropped outright. Any other record becomes a tombstone
// that is expunged once the server accepts it.
func Do(ctx context.InkvaultCtx, id string) error {
	return ctx.Store.Update(func(tx syncer.Tx) error {
		base, err := tx.GetBase(id)
		if err != nil {
			return errors.Wrap(err, "getting the base snapshot")
		}

		r, err := tx.Get(id)
		if err != nil {
			return errors.Wrap(err, "getting the record")
		}
		if r == nil {
			return nil
		}

		if base == nil {
			if err := tx.Delete(id); err != nil {
				return errors.Wrap(err, "deleting the record")
			}
			return nil
		}

		if err := tx.Put(r.Delete(ctx.Now())); err != nil {
			return errors.Wrap(err, "marking the record deleted")
		}

		return nil
	})
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		r, err := ctx.Store.FindByPrefix(args[0])
		if err != nil {
			return errors.Wrapf(err, "finding %s", args[0])
		}

		if !yesFlag {
			output.Info(os.Stdout, r)

			ok, err := ui.Confirm("remove this record?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		if err := Do(ctx, r.ID); err != nil {
			return errors.Wrap(err, "removing the record")
		}

		log.Successf("removed %s\n", utils.ShortID(r.ID))

		return nil
	}
}
