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

// Package client provides interfaces for interacting with the Inkvault server
// and the data structures for responses
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/wire"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidLogin is an error for invalid credentials for login
	ErrInvalidLogin = errors.New("wrong credentials")
	// ErrContentTypeMismatch is an error for a response that is not what the client expects
	ErrContentTypeMismatch = errors.New("content type mismatch")
	// ErrNoSession is an error for an authorized request made without a session
	ErrNoSession = errors.New("no session key found")
)

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

func asHTTPError(err error) (*HTTPError, bool) {
	e, ok := errors.Cause(err).(*HTTPError)
	return e, ok
}

// IsUnauthorized returns true if the server rejected the session or the sync token
func IsUnauthorized(err error) bool {
	e, ok := asHTTPError(err)
	return ok && e.StatusCode == http.StatusUnauthorized
}

// IsQuotaExceeded returns true if the server rejected a sync for exceeding the storage quota
func IsQuotaExceeded(err error) bool {
	e, ok := asHTTPError(err)
	return ok && e.StatusCode == http.StatusBadRequest && e.Message == wire.QuotaExceededMessage
}

var contentTypeApplicationJSON = "application/json"
var contentTypeNone = ""

// requestOptions contains options for requests
type requestOptions struct {
	// ExpectedContentType is the Content-Type that the client is expecting from the server
	ExpectedContentType *string
	// Authorized requires a session
	Authorized bool
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

// Client talks to the api of an Inkvault server
type Client struct {
	// Endpoint is the base url of the api, e.g. https://example.com/api
	Endpoint   string
	Version    string
	SessionKey string
	HTTPClient *http.Client
}

// New returns a client for the given api endpoint
func New(endpoint, version string) *Client {
	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Version:    version,
		HTTPClient: NewRateLimitedHTTPClient(),
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	return http.DefaultClient
}

func getExpectedContentType(options *requestOptions) string {
	if options != nil && options.ExpectedContentType != nil {
		return *options.ExpectedContentType
	}

	return contentTypeApplicationJSON
}

func (c *Client) getReq(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", c.Endpoint, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", c.Version)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	if c.SessionKey != "" {
		credential := fmt.Sprintf("Bearer %s", c.SessionKey)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr returns an HTTPError if the response indicates an error. The
// message is taken from the error envelope when the server sent one.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	message := strings.TrimRight(string(body), "\n")

	var envelope wire.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    message,
	}
}

func checkContentType(res *http.Response, options *requestOptions) error {
	expected := getExpectedContentType(options)

	got := res.Header.Get("Content-Type")

	var ok bool
	if expected == contentTypeNone {
		ok = got == ""
	} else {
		ok = strings.HasPrefix(got, expected)
	}
	if !ok {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, expected)
	}

	return nil
}

// doReq does a http request to the given path in the api endpoint. The
// caller closes the body of the returned response.
func (c *Client) doReq(ctx context.Context, method, path string, body []byte, options *requestOptions) (*http.Response, error) {
	if options != nil && options.Authorized && c.SessionKey == "" {
		return nil, ErrNoSession
	}

	req, err := c.getReq(ctx, method, path, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "server responded with an error")
	}

	if err = checkContentType(res, options); err != nil {
		res.Body.Close()
		return nil, errors.Wrap(err, "unexpected Content-Type")
	}

	return res, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, dest interface{}, options *requestOptions) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshaling payload")
		}
		body = b
	}

	res, err := c.doReq(ctx, method, path, body, options)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding response payload")
	}

	return nil
}

// Session is a session issued by the server
type Session struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// User is the account of a session
type User struct {
	UUID      string    `json:"uuid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SigninResponse is a response from the signin endpoint
type SigninResponse struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

type signinPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin requests a session for the given credentials
func (c *Client) Signin(ctx context.Context, email, password string) (SigninResponse, error) {
	var ret SigninResponse

	err := c.doJSON(ctx, "POST", "/v3/signin", signinPayload{Email: email, Password: password}, &ret, nil)
	if err != nil {
		if IsUnauthorized(err) {
			return ret, ErrInvalidLogin
		}

		return ret, errors.Wrap(err, "requesting session")
	}

	return ret, nil
}

// Signout deletes the current session on the server
func (c *Client) Signout(ctx context.Context) error {
	opts := requestOptions{
		ExpectedContentType: &contentTypeNone,
		Authorized:          true,
	}

	if err := c.doJSON(ctx, "POST", "/v3/signout", nil, nil, &opts); err != nil {
		return errors.Wrap(err, "deleting session")
	}

	return nil
}

// Sync sends local changes and receives the changes of other devices
func (c *Client) Sync(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error) {
	var ret wire.SyncResponse

	if req.Puts == nil {
		req.Puts = []wire.Put{}
	}

	if err := c.doJSON(ctx, "POST", "/v3/sync", req, &ret, &requestOptions{Authorized: true}); err != nil {
		return ret, errors.Wrap(err, "syncing")
	}

	return ret, nil
}

// WaitEvents blocks until another session of the account commits a change or
// the timeout elapses, and returns the ids of the changed records.
func (c *Client) WaitEvents(ctx context.Context, timeout time.Duration) ([]string, error) {
	v := url.Values{}
	v.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	path := fmt.Sprintf("/v3/events?%s", v.Encode())

	var ret wire.EventsResponse
	if err := c.doJSON(ctx, "GET", path, nil, &ret, &requestOptions{Authorized: true}); err != nil {
		return nil, errors.Wrap(err, "waiting for events")
	}

	return ret.Changed, nil
}
