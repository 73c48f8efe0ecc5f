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

package conflicts

import (
	"io"
	"os"
	"strings"

	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/output"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	// ErrNotFound is an error for an id that matches no conflict
	ErrNotFound = errors.New("no conflict matches the id")
	// ErrAmbiguousID is an error for an id prefix that matches several conflicts
	ErrAmbiguousID = errors.New("the id matches more than one conflict")
)

var example = `
  * List the conflicts that need a decision
  inkvault conflicts

  * Show one conflict
  inkvault conflicts 0f5f0054`

// NewCmd returns a new conflicts command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conflicts <id?>",
		Short:   "List conflicts that could not be merged automatically",
		Example: example,
		Args:    cobra.MaximumNArgs(1),
		RunE:    newRun(ctx),
	}

	return cmd
}

// Find returns the pending conflict whose id starts with the prefix
func Find(ctx context.InkvaultCtx, prefix string) (syncer.Conflict, error) {
	cs, err := ctx.Store.ListConflicts()
	if err != nil {
		return syncer.Conflict{}, errors.Wrap(err, "listing conflicts")
	}

	var matches []syncer.Conflict
	for _, c := range cs {
		if prefix != "" && strings.HasPrefix(c.ID, prefix) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return syncer.Conflict{}, ErrNotFound
	case 1:
		return matches[0], nil
	}

	return syncer.Conflict{}, ErrAmbiguousID
}

func list(ctx context.InkvaultCtx, w io.Writer, args []string) (int, error) {
	if len(args) == 1 {
		c, err := Find(ctx, args[0])
		if err != nil {
			return 0, err
		}

		output.Conflict(w, c)
		return 1, nil
	}

	cs, err := ctx.Store.ListConflicts()
	if err != nil {
		return 0, errors.Wrap(err, "listing conflicts")
	}

	for _, c := range cs {
		output.Conflict(w, c)
	}

	return len(cs), nil
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		n, err := list(ctx, os.Stdout, args)
		if err != nil {
			return err
		}

		if n == 0 {
			log.Success("no conflicts\n")
			return nil
		}

		log.Infof("keep a side with `inkvault resolve <id> --keep local|remote`\n")

		return nil
	}
}
