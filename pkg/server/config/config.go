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

// Package config builds the server configuration from flags, environment
// variables and defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/inkvault/inkvault/pkg/dirs"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// AppEnvTest represents an app environment for tests. Rate limiting is
	// disabled in this environment.
	AppEnvTest string = "TEST"
	// DefaultDBFilename is the default SQLite database filename
	DefaultDBFilename = "server.db"
	// DefaultQuotaBytes is the default per-account storage quota
	DefaultQuotaBytes int64 = 100 << 20
	// DefaultSessionTTL is the default lifetime of a session
	DefaultSessionTTL = 30 * 24 * time.Hour
)

var (
	// ErrDBMissingDSN is an error for an incomplete configuration missing the database DSN
	ErrDBMissingDSN = errors.New("DB DSN is empty")
	// ErrDBDriverInvalid is an error for an unsupported database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrQuotaInvalid is an error for a non-positive storage quota
	ErrQuotaInvalid = errors.New("Invalid quota")
	// ErrSessionTTLInvalid is an error for a non-positive session lifetime
	ErrSessionTTLInvalid = errors.New("Invalid session TTL")
)

// DefaultDBPath returns the default path to the SQLite database file
func DefaultDBPath() string {
	return filepath.Join(dirs.DataDir(), DefaultDBFilename)
}

func readBoolEnv(name string) bool {
	return os.Getenv(name) == "true"
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

func getInt64OrEnv(value int64, envKey string, defaultVal int64) (int64, error) {
	if value != 0 {
		return value, nil
	}
	env := os.Getenv(envKey)
	if env == "" {
		return defaultVal, nil
	}

	v, err := strconv.ParseInt(env, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", envKey)
	}

	return v, nil
}

func getDurationOrEnv(value time.Duration, envKey string, defaultVal time.Duration) (time.Duration, error) {
	if value != 0 {
		return value, nil
	}
	env := os.Getenv(envKey)
	if env == "" {
		return defaultVal, nil
	}

	v, err := time.ParseDuration(env)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", envKey)
	}

	return v, nil
}

// Config is an application configuration
type Config struct {
	AppEnv              string
	Port                string
	DBDriver            string
	DBDSN               string
	DisableRegistration bool
	LogLevel            string
	LogFile             string
	QuotaBytes          int64
	SessionTTL          time.Duration
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv              string
	Port                string
	DBDriver            string
	DBDSN               string
	DisableRegistration bool
	LogLevel            string
	LogFile             string
	QuotaBytes          int64
	SessionTTL          time.Duration
}

// New constructs and returns a new validated config.
// Empty params fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	quota, err := getInt64OrEnv(p.QuotaBytes, "QUOTA_BYTES", DefaultQuotaBytes)
	if err != nil {
		return Config{}, err
	}
	ttl, err := getDurationOrEnv(p.SessionTTL, "SESSION_TTL", DefaultSessionTTL)
	if err != nil {
		return Config{}, err
	}

	driver := getOrEnv(p.DBDriver, "DB_DRIVER", database.DriverSQLite)
	defaultDSN := ""
	if driver == database.DriverSQLite {
		defaultDSN = DefaultDBPath()
	}

	c := Config{
		AppEnv:              getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:                getOrEnv(p.Port, "PORT", "3001"),
		DBDriver:            driver,
		DBDSN:               getOrEnv(p.DBDSN, "DB_DSN", defaultDSN),
		DisableRegistration: p.DisableRegistration || readBoolEnv("DISABLE_REGISTRATION"),
		LogLevel:            getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		LogFile:             getOrEnv(p.LogFile, "LOG_FILE", ""),
		QuotaBytes:          quota,
		SessionTTL:          ttl,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.DBDriver != database.DriverSQLite && c.DBDriver != database.DriverPostgres {
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}
	if c.DBDSN == "" {
		return ErrDBMissingDSN
	}
	if c.QuotaBytes <= 0 {
		return ErrQuotaInvalid
	}
	if c.SessionTTL <= 0 {
		return ErrSessionTTLInvalid
	}

	return nil
}
