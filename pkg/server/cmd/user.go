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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/inkvault/inkvault/pkg/prompt"
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/pkg/errors"
)

const userCommands = `Available commands:
  create: Create a new user
  remove: Remove a user along with their records and sessions
  reset-password: Reset a user's password and sign out their sessions`

func userCreateCmd(args []string) {
	fs := setupFlagSet("create", "inkvault-server user create")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "User password (required)")
	db := addDBFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, db)
	defer cleanup()

	user, err := a.CreateUser(*email, *password, *password)
	if err != nil {
		if errors.Is(err, app.ErrDuplicateEmail) || errors.Is(err, app.ErrPasswordTooShort) {
			fmt.Printf("Error: %s\n", err)
		} else {
			log.ErrorWrap(err, "creating user")
		}
		os.Exit(1)
	}

	fmt.Printf("User created successfully\n")
	fmt.Printf("Email: %s\n", user.Email)
}

func userRemoveCmd(args []string, stdin io.Reader) {
	fs := setupFlagSet("remove", "inkvault-server user remove")

	email := fs.String("email", "", "User email address (required)")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	db := addDBFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")

	a, cleanup := setupAppWithDB(fs, db)
	defer cleanup()

	user, err := a.GetUserByEmail(*email)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			fmt.Printf("Error: user with email %s not found\n", *email)
		} else {
			log.ErrorWrap(err, "finding user")
		}
		os.Exit(1)
	}

	if !*yes {
		ok, err := prompt.Confirm(os.Stdout, stdin, fmt.Sprintf("Remove user %s and all of their records?", user.Email), false)
		if err != nil {
			log.ErrorWrap(err, "getting confirmation")
			os.Exit(1)
		}
		if !ok {
			fmt.Println("Aborted by user")
			return
		}
	}

	if err := a.RemoveUser(user.Email); err != nil {
		log.ErrorWrap(err, "removing user")
		os.Exit(1)
	}

	fmt.Printf("User removed successfully\n")
	fmt.Printf("Email: %s\n", user.Email)
}

func userResetPasswordCmd(args []string) {
	fs := setupFlagSet("reset-password", "inkvault-server user reset-password")

	email := fs.String("email", "", "User email address (required)")
	password := fs.String("password", "", "New password (required)")
	db := addDBFlags(fs)

	fs.Parse(args)

	requireString(fs, *email, "email")
	requireString(fs, *password, "password")

	a, cleanup := setupAppWithDB(fs, db)
	defer cleanup()

	user, err := a.GetUserByEmail(*email)
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			fmt.Printf("Error: user with email %s not found\n", *email)
		} else {
			log.ErrorWrap(err, "finding user")
		}
		os.Exit(1)
	}

	if err := a.UpdateUserPassword(user, *password); err != nil {
		if errors.Is(err, app.ErrPasswordTooShort) {
			fmt.Printf("Error: %s\n", err)
		} else {
			log.ErrorWrap(err, "updating password")
		}
		os.Exit(1)
	}

	fmt.Printf("Password reset successfully\n")
	fmt.Printf("Email: %s\n", user.Email)
}

func userCmd(args []string) {
	if len(args) < 1 {
		fmt.Printf("Usage:\n  inkvault-server user [command]\n\n%s\n", userCommands)
		os.Exit(1)
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		userCreateCmd(subArgs)
	case "remove":
		userRemoveCmd(subArgs, os.Stdin)
	case "reset-password":
		userResetPasswordCmd(subArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n%s\n", subcommand, userCommands)
		os.Exit(1)
	}
}
