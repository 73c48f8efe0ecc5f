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

package view

import (
	"fmt"
	"io"
	"os"

	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/vault"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * List all records
 inkvault view

 * List todo lists, including archived ones
 inkvault view -k todo --archived

 * List notes with a label
 inkvault view -l git

 * View a record
 inkvault view 0f5f0054

 * View a protected record
 inkvault view 0f5f0054 --unlock
 `

var kindFlag string
var labelFlag string
var archivedFlag bool
var contentOnly bool
var unlockFlag bool

// NewCmd returns a new view command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <id?>",
		Aliases: []string{"v", "ls"},
		Short:   "List records or view a record",
		Example: example,
		Args:    cobra.MaximumNArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&kindFlag, "kind", "k", "", "list records of the kind only")
	f.StringVarP(&labelFlag, "label", "l", "", "list records with the label only")
	f.BoolVar(&archivedFlag, "archived", false, "include archived records")
	f.BoolVar(&contentOnly, "content-only", false, "print the content only")
	f.BoolVar(&unlockFlag, "unlock", false, "prompt for the vault password to show protected content")

	return cmd
}

// ListOptions select the records to list
type ListOptions struct {
	Kind     record.Kind
	Label    string
	Archived bool
}

func hasLabel(r record.Record, label string) bool {
	for _, l := range r.Payload.Labels {
		if l == label {
			return true
		}
	}

	return false
}

func listRecords(ctx context.InkvaultCtx, w io.Writer, opts ListOptions) error {
	rs, err := ctx.Store.Query(syncer.Filter{Kind: opts.Kind})
	if err != nil {
		return errors.Wrap(err, "querying records")
	}

	for _, r := range rs {
		if r.Payload.Archived && !opts.Archived {
			continue
		}
		if opts.Label != "" && !hasLabel(r, opts.Label) {
			continue
		}

		output.Row(w, r)
	}

	return nil
}

func viewRecord(ctx context.InkvaultCtx, w io.Writer, id string, contentOnly bool, v *crypt.Vault) error {
	r, err := ctx.Store.FindByPrefix(id)
	if err != nil {
		return errors.Wrapf(err, "finding %s", id)
	}

	if v != nil && !r.IsDeleted() && r.Payload.Protected() {
		c, err := vault.Reveal(v, *r.Payload)
		if err != nil {
			return errors.Wrap(err, "revealing the protected content")
		}

		p := r.Payload.Clone()
		p.Content = c
		p.Locked = nil
		r.Payload = &p
	}

	if contentOnly {
		fmt.Fprint(w, output.Document(r))
		return nil
	}

	output.Info(w, r)

	return nil
}

func unlock(ctx context.InkvaultCtx) (*crypt.Vault, error) {
	var password string
	if err := ui.PromptPassword("vault password", &password); err != nil {
		return nil, errors.Wrap(err, "getting the vault password")
	}

	return vault.Unlock(ctx.DB, password)
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if kindFlag != "" && !record.Kind(kindFlag).Valid() {
				return errors.Errorf("unknown kind %s", kindFlag)
			}

			opts := ListOptions{
				Kind:     record.Kind(kindFlag),
				Label:    labelFlag,
				Archived: archivedFlag,
			}

			return listRecords(ctx, os.Stdout, opts)
		}

		var v *crypt.Vault
		if unlockFlag {
			var err error
			if v, err = unlock(ctx); err != nil {
				return err
			}
		}

		return viewRecord(ctx, os.Stdout, args[0], contentOnly, v)
	}
}
