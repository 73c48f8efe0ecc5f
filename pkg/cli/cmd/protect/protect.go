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

// Package protect provides the commands that seal and unseal the content
// of records with the vault password
package protect

import (
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/cli/vault"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new protect command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "protect <id>",
		Short:   "Seal the content of a record with the vault password",
		Example: "  inkvault protect 0f5f0054",
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx, vault.Protect, "protected"),
	}

	return cmd
}

// NewUnprotectCmd returns a new unprotect command
func NewUnprotectCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "unprotect <id>",
		Short:   "Restore the sealed content of a record",
		Example: "  inkvault unprotect 0f5f0054",
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx, vault.Unprotect, "unprotected"),
	}

	return cmd
}

type transform func(v *crypt.Vault, r record.Record, now int64) (record.Record, error)

// Do applies the transform to the record matching the id prefix
func Do(ctx context.InkvaultCtx, prefix, password string, fn transform) (record.Record, error) {
	v, err := vault.Unlock(ctx.DB, password)
	if err != nil {
		return record.Record{}, err
	}

	r, err := ctx.Store.FindByPrefix(prefix)
	if err != nil {
		return record.Record{}, errors.Wrapf(err, "finding %s", prefix)
	}

	ret, err := fn(v, r, ctx.Now())
	if err != nil {
		return record.Record{}, err
	}

	ret, err = syncer.SaveEdit(ctx.Store, r, ret, ctx.Now())
	if err != nil {
		return record.Record{}, errors.Wrap(err, "saving the record")
	}

	return ret, nil
}

func newRun(ctx context.InkvaultCtx, fn transform, done string) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var password string
		if err := ui.PromptPassword("vault password", &password); err != nil {
			return errors.Wrap(err, "getting the vault password")
		}

		r, err := Do(ctx, args[0], password, fn)
		if err != nil {
			return err
		}

		log.Successf("%s %s\n", done, utils.ShortID(r.ID))

		return nil
	}
}
