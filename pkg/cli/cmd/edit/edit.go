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

package edit

import (
	"os"

	"github.com/google/go-cmp/cmp"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/cli/validate"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var titleFlag string
var contentFlag string
var labelsFlag []string
var colorFlag string
var archiveFlag bool

var example = `
  * Edit a record by id
  inkvault edit 0f5f0054

  * Edit a record without launching an editor
  inkvault edit 0f5f0054 -c "new content"

  * Replace the labels of a record
  inkvault edit 0f5f0054 -l git -l linux

  * Archive a record
  inkvault edit 0f5f0054 --archive
`

var (
	// ErrProtected is an error for editing the content of a protected record
	ErrProtected = errors.New("The record is protected. Run `inkvault unprotect` first")
	// ErrNoChange is an error for an edit that does not change anything
	ErrNoChange = errors.New("Nothing changed")
	// ErrDeleted is an error for editing a deleted record
	ErrDeleted = errors.New("The record is deleted")
)

// NewCmd returns a new edit command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Edit a record",
		Aliases: []string{"e"},
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&titleFlag, "title", "t", "", "a new title, or a new name for a label")
	f.StringVarP(&contentFlag, "content", "c", "", "a new content")
	f.StringSliceVarP(&labelsFlag, "label", "l", nil, "labels to replace the current ones with")
	f.StringVar(&colorFlag, "color", "", "a new color for a label")
	f.BoolVar(&archiveFlag, "archive", false, "archive the record. --archive=false unarchives it.")

	return cmd
}

// Changes are the fields to change. Nil fields are left untouched.
type Changes struct {
	Title    *string
	Content  *string
	Labels   []string
	Color    *string
	Archived *bool
}

// Apply returns the record with the changes applied as a local edit
func Apply(r record.Record, c Changes, now int64, newID func() string) (record.Record, error) {
	if r.IsDeleted() {
		return r, ErrDeleted
	}

	p := r.Payload.Clone()

	if c.Title != nil {
		if r.Kind == record.KindLabel {
			if err := validate.LabelName(*c.Title); err != nil {
				return r, errors.Wrap(err, "invalid label name")
			}
		}
		p.Title = *c.Title
	}
	if c.Content != nil {
		if p.Protected() {
			return r, ErrProtected
		}

		if p.Content.Type == record.ContentList {
			p.Content.Items = ui.ParseItems(*c.Content, p.Content.Items, now, newID)
		} else {
			p.Content.Text = *c.Content
		}
	}
	if c.Labels != nil {
		for _, l := range c.Labels {
			if err := validate.LabelName(l); err != nil {
				return r, errors.Wrapf(err, "invalid label %s", l)
			}
		}
		p.Labels = c.Labels
	}
	if c.Color != nil {
		if err := validate.Color(*c.Color); err != nil {
			return r, err
		}
		p.Color = *c.Color
	}
	if c.Archived != nil {
		p.Archived = *c.Archived
	}

	if cmp.Equal(p, *r.Payload) {
		return r, ErrNoChange
	}

	return r.Edit(p, now), nil
}

func mustUUID() string {
	id, err := utils.GenerateUUID()
	if err != nil {
		panic(err)
	}

	return id
}

func getChanges(ctx context.InkvaultCtx, cmd *cobra.Command, r record.Record) (Changes, error) {
	var c Changes

	f := cmd.Flags()
	if f.Changed("title") {
		c.Title = &titleFlag
	}
	if f.Changed("content") {
		c.Content = &contentFlag
	}
	if f.Changed("label") {
		c.Labels = labelsFlag
		if c.Labels == nil {
			c.Labels = []string{}
		}
	}
	if f.Changed("color") {
		c.Color = &colorFlag
	}
	if f.Changed("archive") {
		c.Archived = &archiveFlag
	}

	if f.NFlag() > 0 || r.Kind == record.KindLabel {
		return c, nil
	}

	if r.Payload.Protected() {
		return c, ErrProtected
	}

	content, err := ui.GetEditorInput(ctx, output.ContentText(r.Payload.Content))
	if err != nil {
		return c, errors.Wrap(err, "getting editor input")
	}
	c.Content = &content

	return c, nil
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		r, err := ctx.Store.FindByPrefix(args[0])
		if err != nil {
			return errors.Wrapf(err, "finding %s", args[0])
		}

		c, err := getChanges(ctx, cmd, r)
		if err != nil {
			return err
		}

		edited, err := Apply(r, c, ctx.Now(), mustUUID)
		if err == ErrNoChange {
			log.Plainf("Nothing changed\n")
			return nil
		} else if err != nil {
			return err
		}

		edited, err = syncer.SaveEdit(ctx.Store, r, edited, ctx.Now())
		if err != nil {
			return errors.Wrap(err, "saving the record")
		}

		log.Successf("edited %s\n", utils.ShortID(r.ID))
		output.Info(os.Stdout, edited)

		return nil
	}
}
