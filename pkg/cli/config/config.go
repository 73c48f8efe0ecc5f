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

// Package config reads and writes the inkvault config file
package config

import (
	"os"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultAPIEndpoint is the api endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
	// DefaultSyncTimeout is the timeout of a sync request used when none is configured
	DefaultSyncTimeout = "30s"
	// DefaultSyncSchedule is the schedule of periodic syncs while watching
	DefaultSyncSchedule = "@every 5m"
)

var (
	// ErrInvalidSyncTimeout is an error for a sync timeout that is not a positive duration
	ErrInvalidSyncTimeout = errors.New("syncTimeout must be a positive duration such as 30s")
	// ErrInvalidSyncSchedule is an error for a sync schedule that is not a cron spec
	ErrInvalidSyncSchedule = errors.New("syncSchedule must be a cron spec such as '@every 5m'")
)

// Config holds inkvault configuration
type Config struct {
	Editor       string `yaml:"editor"`
	APIEndpoint  string `yaml:"apiEndpoint"`
	SyncTimeout  string `yaml:"syncTimeout"`
	SyncSchedule string `yaml:"syncSchedule"`
}

// Default returns the config written on the first run
func Default(editor string) Config {
	return Config{
		Editor:       editor,
		APIEndpoint:  DefaultAPIEndpoint,
		SyncTimeout:  DefaultSyncTimeout,
		SyncSchedule: DefaultSyncSchedule,
	}
}

// Timeout parses the sync timeout, falling back to the default when unset
func (c Config) Timeout() (time.Duration, error) {
	s := c.SyncTimeout
	if s == "" {
		s = DefaultSyncTimeout
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, ErrInvalidSyncTimeout
	}

	return d, nil
}

// Schedule returns the sync schedule, falling back to the default when unset
func (c Config) Schedule() (string, error) {
	s := c.SyncSchedule
	if s == "" {
		s = DefaultSyncSchedule
	}

	if _, err := cron.Parse(s); err != nil {
		return "", ErrInvalidSyncSchedule
	}

	return s, nil
}

// Validate checks the values of the config
func (c Config) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Schedule(); err != nil {
		return err
	}

	return nil
}

// GetPath returns the path to the inkvault config file
func GetPath(ctx context.InkvaultCtx) string {
	return context.ConfigPath(ctx.Paths)
}

// Read reads the config file
func Read(ctx context.InkvaultCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file
func Write(ctx context.InkvaultCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0644)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
