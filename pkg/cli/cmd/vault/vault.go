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

package vault

import (
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/cli/vault"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrPasswordMismatch is an error for a password confirmation that does not match
var ErrPasswordMismatch = errors.New("The passwords do not match")

// ErrPasswordEmpty is an error for an empty vault password
var ErrPasswordEmpty = errors.New("The password is empty")

var example = `
  * Set the password that protects records on this device
  inkvault vault setup`

// NewCmd returns a new vault command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vault",
		Short:   "Manage the password that protects records",
		Example: example,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "setup",
		Short: "Set the vault password",
		Args:  cobra.NoArgs,
		RunE:  newSetupRun(ctx),
	})

	return cmd
}

// Setup validates the password and its confirmation and stores the verifier
func Setup(ctx context.InkvaultCtx, password, confirmation string) error {
	if password == "" {
		return ErrPasswordEmpty
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}

	return vault.Setup(ctx.DB, password)
}

func newSetupRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if _, err := vault.Load(ctx.DB); err == nil {
			return vault.ErrAlreadySetUp
		}

		var password, confirmation string
		if err := ui.PromptPassword("new vault password", &password); err != nil {
			return errors.Wrap(err, "getting the password")
		}
		if err := ui.PromptPassword("confirm the vault password", &confirmation); err != nil {
			return errors.Wrap(err, "getting the confirmation")
		}

		if err := Setup(ctx, password, confirmation); err != nil {
			return err
		}

		log.Success("vault is set up. The password cannot be recovered if lost\n")

		return nil
	}
}
