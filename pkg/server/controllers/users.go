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

package controllers

import (
	"net/http"

	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/log"
	mw "github.com/inkvault/inkvault/pkg/server/middleware"
	"github.com/inkvault/inkvault/pkg/server/presenters"
)

// NewUsers creates a new Users controller.
func NewUsers(app *app.App) *Users {
	return &Users{app: app}
}

// Users is a user controller.
type Users struct {
	app *app.App
}

// SigninPayload is the payload of a sign in
type SigninPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupPayload is the payload of a registration
type SignupPayload struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// SessionResponse is the response of a sign in or a registration
type SessionResponse struct {
	Session presenters.Session `json:"session"`
	User    presenters.User    `json:"user"`
}

func respondWithSession(w http.ResponseWriter, status int, user database.User, session database.Session) {
	mw.RespondJSON(w, status, SessionResponse{
		Session: presenters.PresentSession(session),
		User:    presenters.PresentUser(user),
	})
}

// V3Signin handles POST /api/v3/signin
func (u *Users) V3Signin(w http.ResponseWriter, r *http.Request) {
	var payload SigninPayload
	if err := parseRequestData(w, r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	if payload.Email == "" {
		handleJSONError(w, app.ErrEmailRequired, "validating payload")
		return
	}

	user, err := u.app.Authenticate(payload.Email, payload.Password)
	if err != nil {
		handleJSONError(w, err, "authenticating")
		return
	}

	session, err := u.app.SignIn(user)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
	}).Info("Signed in.")

	respondWithSession(w, http.StatusOK, *user, *session)
}

// V3Signup handles POST /api/v3/users
func (u *Users) V3Signup(w http.ResponseWriter, r *http.Request) {
	if u.app.DisableRegistration {
		handleJSONError(w, app.ErrRegistrationDisabled, "registering")
		return
	}

	var payload SignupPayload
	if err := parseRequestData(w, r, &payload); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, err := u.app.CreateUser(payload.Email, payload.Password, payload.PasswordConfirmation)
	if err != nil {
		handleJSONError(w, err, "creating user")
		return
	}

	session, err := u.app.SignIn(&user)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	respondWithSession(w, http.StatusCreated, user, *session)
}

// V3Signout handles POST /api/v3/signout. Signing out without a valid
// session is not an error.
func (u *Users) V3Signout(w http.ResponseWriter, r *http.Request) {
	key, err := mw.GetCredential(r)
	if err != nil || key == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := u.app.DeleteSession(key); err != nil {
		handleJSONError(w, err, "deleting session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
