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

package resolve

import (
	"os"

	"github.com/inkvault/inkvault/pkg/cli/cmd/conflicts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/utils"
	"github.com/inkvault/inkvault/pkg/merge"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var keepFlag string

var example = `
  * Keep the copy on this device
  inkvault resolve 0f5f0054 --keep local

  * Keep the copy on the server
  inkvault resolve 0f5f0054 --keep remote`

// NewCmd returns a new resolve command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve <id>",
		Short:   "Resolve a conflict by keeping one side",
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&keepFlag, "keep", "k", "", "the side to keep: local or remote")
	cmd.MarkFlagRequired("keep")

	return cmd
}

// Do resolves the conflict matching the id prefix
func Do(ctx context.InkvaultCtx, prefix string, choice merge.Choice) (record.Record, error) {
	c, err := conflicts.Find(ctx, prefix)
	if err != nil {
		return record.Record{}, err
	}

	return ctx.Orchestrator(nil).Resolve(c.ID, choice)
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		r, err := Do(ctx, args[0], merge.Choice(keepFlag))
		if err != nil {
			return errors.Wrap(err, "resolving the conflict")
		}

		log.Successf("kept the %s copy of %s. It will be uploaded on the next sync\n", keepFlag, utils.ShortID(r.ID))
		output.Info(os.Stdout, r)

		return nil
	}
}
