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

package login

import (
	stdcontext "context"
	"net/url"
	"strconv"

	"github.com/inkvault/inkvault/pkg/cli/client"
	"github.com/inkvault/inkvault/pkg/cli/consts"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/database"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/ui"
	"github.com/inkvault/inkvault/pkg/crypt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
  inkvault login`

var usernameFlag, passwordFlag, passphraseFlag, apiEndpointFlag string

// ErrEmptyPassphrase is an error for an empty encryption passphrase
var ErrEmptyPassphrase = errors.New("The encryption passphrase is empty")

// NewCmd returns a new login command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&usernameFlag, "username", "u", "", "email address for authentication")
	f.StringVarP(&passwordFlag, "password", "p", "", "password for authentication")
	f.StringVar(&passphraseFlag, "passphrase", "", "passphrase from which the encryption key is derived")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// Credentials are the user input for logging in
type Credentials struct {
	Email    string
	Password string
	// Passphrase derives the encryption key. It never leaves the device.
	Passphrase string
}

// Do signs in and saves the session and the encryption key derived from the passphrase
func Do(c stdcontext.Context, ctx context.InkvaultCtx, creds Credentials) error {
	if creds.Passphrase == "" {
		return ErrEmptyPassphrase
	}

	resp, err := ctx.Client().Signin(c, creds.Email, creds.Password)
	if err != nil {
		return errors.Wrap(err, "requesting session")
	}

	key := crypt.DeriveKey([]byte(creds.Passphrase), []byte(resp.User.Email))
	token, err := crypt.NewSyncToken(key)
	if err != nil {
		return errors.Wrap(err, "deriving the sync token")
	}

	previous, err := database.GetSystemOr(ctx.DB, consts.SystemEmail, "")
	if err != nil {
		return errors.Wrap(err, "getting the previous email")
	}
	if previous != "" && previous != resp.User.Email {
		log.Warnf("this device was last logged in as %s. Its records will be uploaded to %s\n", previous, resp.User.Email)
	}

	tx, err := ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	kv := []struct {
		key, val string
	}{
		{consts.SystemSessionKey, resp.Session.Key},
		{consts.SystemSessionKeyExpiry, strconv.FormatInt(resp.Session.ExpiresAt, 10)},
		{consts.SystemEmail, resp.User.Email},
		{consts.SystemEncryptionKey, crypt.EncodeKey(key)},
		{consts.SystemSyncToken, token},
		{consts.SystemLoggedIn, "1"},
	}
	for _, item := range kv {
		if err := database.UpsertSystem(tx, item.key, item.val); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "saving %s", item.key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

func getCredentials() (Credentials, error) {
	var ret Credentials

	ret.Email = usernameFlag
	if ret.Email == "" {
		if err := ui.PromptInput("email", &ret.Email); err != nil {
			return ret, errors.Wrap(err, "getting email input")
		}
		if ret.Email == "" {
			return ret, errors.New("Email is empty")
		}
	}

	ret.Password = passwordFlag
	if ret.Password == "" {
		if err := ui.PromptPassword("password", &ret.Password); err != nil {
			return ret, errors.Wrap(err, "getting password input")
		}
		if ret.Password == "" {
			return ret, errors.New("Password is empty")
		}
	}

	ret.Passphrase = passphraseFlag
	if ret.Passphrase == "" {
		if err := ui.PromptPassword("encryption passphrase", &ret.Passphrase); err != nil {
			return ret, errors.Wrap(err, "getting passphrase input")
		}
	}

	return ret, nil
}

// getServerDisplayURL returns the origin of the api endpoint
func getServerDisplayURL(ctx context.InkvaultCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		log.Infof("Logging in to %s\n", getServerDisplayURL(ctx))

		creds, err := getCredentials()
		if err != nil {
			return err
		}

		err = Do(stdcontext.Background(), ctx, creds)
		if errors.Cause(err) == client.ErrInvalidLogin {
			log.Error("wrong login\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		return nil
	}
}
