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

package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/inkvault/inkvault/pkg/assert"
	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	valid := Config{
		Port:       "3000",
		DBDriver:   "sqlite",
		DBDSN:      "test.db",
		QuotaBytes: 1024,
		SessionTTL: time.Hour,
	}

	testCases := []struct {
		mutate      func(c *Config)
		expectedErr error
	}{
		{
			mutate:      func(c *Config) {},
			expectedErr: nil,
		},
		{
			mutate:      func(c *Config) { c.DBDriver = "postgres"; c.DBDSN = "postgres://localhost/inkvault" },
			expectedErr: nil,
		},
		{
			mutate:      func(c *Config) { c.Port = "" },
			expectedErr: ErrPortInvalid,
		},
		{
			mutate:      func(c *Config) { c.DBDriver = "mysql" },
			expectedErr: ErrDBDriverInvalid,
		},
		{
			mutate:      func(c *Config) { c.DBDSN = "" },
			expectedErr: ErrDBMissingDSN,
		},
		{
			mutate:      func(c *Config) { c.QuotaBytes = 0 },
			expectedErr: ErrQuotaInvalid,
		},
		{
			mutate:      func(c *Config) { c.SessionTTL = -time.Second },
			expectedErr: ErrSessionTTLInvalid,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			c := valid
			tc.mutate(&c)

			err := validate(c)

			assert.Equal(t, errors.Cause(err), tc.expectedErr, "error mismatch")
		})
	}
}

func TestNew_env(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("QUOTA_BYTES", "2048")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")

	c, err := New(Params{LogLevel: "debug"})
	assert.NilErr(t, err, "building config")

	assert.Equal(t, c.Port, "4000", "port mismatch")
	assert.Equal(t, c.QuotaBytes, int64(2048), "quota mismatch")
	assert.Equal(t, c.SessionTTL, 2*time.Hour, "ttl mismatch")
	assert.Equal(t, c.LogLevel, "debug", "log level mismatch")
	assert.Equal(t, c.DBDriver, "sqlite", "driver mismatch")
	assert.Equal(t, c.DBDSN, DefaultDBPath(), "dsn mismatch")
}

func TestNew_paramsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("QUOTA_BYTES", "2048")

	c, err := New(Params{Port: "5000", QuotaBytes: 10, DBDSN: "x.db"})
	assert.NilErr(t, err, "building config")

	assert.Equal(t, c.Port, "5000", "port mismatch")
	assert.Equal(t, c.QuotaBytes, int64(10), "quota mismatch")
	assert.Equal(t, c.DBDSN, "x.db", "dsn mismatch")
}

func TestNew_invalidEnv(t *testing.T) {
	t.Setenv("QUOTA_BYTES", "lots")

	_, err := New(Params{})
	if err == nil {
		t.Fatal("expected an error")
	}
}
