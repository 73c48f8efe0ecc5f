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

// Package dirs resolves the directories in which inkvault keeps its files
package dirs

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
)

// AppName is the name of the directory created under each base directory
const AppName = "inkvault"

const (
	envHome       = "INKVAULT_HOME"
	envConfigHome = "XDG_CONFIG_HOME"
	envDataHome   = "XDG_DATA_HOME"
)

var (
	// Home is the home directory of the user
	Home string
	// ConfigHome is the base directory for user-specific configuration
	ConfigHome string
	// DataHome is the base directory for user-specific data files
	DataHome string
)

func init() {
	Reload()
}

// Reload re-reads the directory definitions from the environment
func Reload() {
	if root := os.Getenv(envHome); root != "" {
		Home = root
		ConfigHome = root
		DataHome = root
		return
	}

	Home = homeDir()
	ConfigHome = envOr(envConfigHome, filepath.Join(Home, ".config"))
	DataHome = envOr(envDataHome, filepath.Join(Home, ".local", "share"))
}

// homeDir reads $HOME and falls back to the user database when it is unset
func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}

	usr, err := user.Current()
	if err != nil {
		panic(errors.Wrap(err, "getting home dir"))
	}

	return usr.HomeDir
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}

	return fallback
}

// ConfigDir returns the directory holding the inkvault configuration
func ConfigDir() string {
	return filepath.Join(ConfigHome, AppName)
}

// DataDir returns the directory holding the inkvault databases
func DataDir() string {
	return filepath.Join(DataHome, AppName)
}
