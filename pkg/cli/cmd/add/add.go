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

package add

import (
	"os"

	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/cli/validate"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var kindFlag string
var titleFlag string
var contentFlag string
var labelsFlag []string
var colorFlag string

var example = `
 * Open an editor to write a note
 inkvault add

 * Skip the editor by providing content directly
 inkvault add -t git -c "time is a part of the commit hash"

 * Send stdin content to a note
 echo "a branch is just a pointer to a commit" | inkvault add -l git

 * Add a todo list. Each line is an item.
 inkvault add -k todo -t groceries -c "milk
 [x] eggs"

 * Add a label
 inkvault add -k label -t work --color blue`

// ErrEmptyContent is an error for a record without any content
var ErrEmptyContent = errors.New("Empty content")

// NewCmd returns a new add command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a new note, todo list or label",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&kindFlag, "kind", "k", string(record.KindNote), "the kind of the record: note, todo or label")
	f.StringVarP(&titleFlag, "title", "t", "", "the title of the record, or the name of a label")
	f.StringVarP(&contentFlag, "content", "c", "", "the content of the record")
	f.StringSliceVarP(&labelsFlag, "label", "l", nil, "labels to attach")
	f.StringVar(&colorFlag, "color", "", "the color of a label")

	return cmd
}

func getContent(ctx context.InkvaultCtx) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	// check for piped content
	fInfo, _ := os.Stdin.Stat()
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "Failed to get piped input")
		}
		return c, nil
	}

	c, err := ui.GetEditorInput(ctx, "")
	if err != nil {
		return "", errors.Wrap(err, "Failed to get editor input")
	}

	return c, nil
}

// Params are the user input for a new record
type Params struct {
	Kind    record.Kind
	Title   string
	Content string
	Labels  []string
	Color   string
}

func validateLabels(labels []string) error {
	for _, l := range labels {
		if err := validate.LabelName(l); err != nil {
			return errors.Wrapf(err, "invalid label %s", l)
		}
	}

	return nil
}

// NewRecord builds a new record from the user input
func NewRecord(p Params, now int64, newID func() string) (record.Record, error) {
	if err := validate.Kind(string(p.Kind)); err != nil {
		return record.Record{}, err
	}
	if err := validateLabels(p.Labels); err != nil {
		return record.Record{}, err
	}

	var payload record.Payload
	switch p.Kind {
	case record.KindLabel:
		if err := validate.LabelName(p.Title); err != nil {
			return record.Record{}, errors.Wrap(err, "invalid label name")
		}
		if err := validate.Color(p.Color); err != nil {
			return record.Record{}, err
		}

		payload = record.Payload{
			Title:   p.Title,
			Color:   p.Color,
			Content: record.Content{Type: record.ContentText},
		}
	case record.KindTodo:
		payload = record.Payload{
			Title: p.Title,
			Content: record.Content{
				Type:  record.ContentList,
				Items: ui.ParseItems(p.Content, nil, now, newID),
			},
			Labels: p.Labels,
		}
	default:
		payload = record.Payload{
			Title:   p.Title,
			Content: record.Content{Type: record.ContentText, Text: p.Content},
			Labels:  p.Labels,
		}
	}

	if payload.IsEmpty() {
		return record.Record{}, ErrEmptyContent
	}

	return record.New(newID(), p.Kind, payload, now), nil
}

func mustUUID() string {
	id, err := utils.GenerateUUID()
	if err != nil {
		panic(err)
	}

	return id
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		p := Params{
			Kind:   record.Kind(kindFlag),
			Title:  titleFlag,
			Labels: labelsFlag,
			Color:  colorFlag,
		}

		if p.Kind != record.KindLabel {
			if err := validateLabels(p.Labels); err != nil {
				return err
			}

			content, err := getContent(ctx)
			if err != nil {
				return errors.Wrap(err, "getting content")
			}
			p.Content = content
		}

		r, err := NewRecord(p, ctx.Now(), mustUUID)
		if err != nil {
			return err
		}

		if err := ctx.Store.Put(r); err != nil {
			return errors.Wrap(err, "Failed to write the record")
		}

		log.Successf("added %s\n", utils.ShortID(r.ID))
		output.Info(os.Stdout, r)

		return nil
	}
}
