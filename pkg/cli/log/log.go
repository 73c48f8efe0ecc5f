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

// Package log provides the terminal output of the command line client
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const (
	debugEnvName  = "INKVAULT_DEBUG"
	debugEnvValue = "1"
)

var (
	// ColorRed is a red foreground color
	ColorRed = color.New(color.FgRed)
	// ColorGreen is a green foreground color
	ColorGreen = color.New(color.FgGreen)
	// ColorYellow is a yellow foreground color
	ColorYellow = color.New(color.FgYellow)
	// ColorBlue is a blue foreground color
	ColorBlue = color.New(color.FgBlue)
	// ColorGray is a gray foreground color
	ColorGray = color.New(color.FgHiBlack)
)

// Output receives everything printed by this package
var Output io.Writer = color.Output

var indent = "  "

func symbolf(symbol string, msg string, v ...interface{}) {
	fmt.Fprintf(Output, "%s%s %s", indent, symbol, fmt.Sprintf(msg, v...))
}

// Info prints information
func Info(msg string) {
	symbolf(ColorBlue.Sprint("•"), "%s", msg)
}

// Infof prints information with optional format verbs
func Infof(msg string, v ...interface{}) {
	symbolf(ColorBlue.Sprint("•"), msg, v...)
}

// Success prints a success message
func Success(msg string) {
	symbolf(ColorGreen.Sprint("✔"), "%s", msg)
}

// Successf prints a success message with optional format verbs
func Successf(msg string, v ...interface{}) {
	symbolf(ColorGreen.Sprint("✔"), msg, v...)
}

// Plainf prints a plain message without any prefix symbol
func Plainf(msg string, v ...interface{}) {
	fmt.Fprintf(Output, "%s%s", indent, fmt.Sprintf(msg, v...))
}

// Warnf prints a warning message with optional format verbs
func Warnf(msg string, v ...interface{}) {
	symbolf(ColorYellow.Sprint("•"), msg, v...)
}

// Error prints an error message
func Error(msg string) {
	symbolf(ColorRed.Sprint("⨯"), "%s", msg)
}

// Errorf prints an error message with optional format verbs
func Errorf(msg string, v ...interface{}) {
	symbolf(ColorRed.Sprint("⨯"), msg, v...)
}

// Askf prints a question with optional format verbs. The leading symbol
// is gray when the input is masked.
func Askf(msg string, masked bool, v ...interface{}) {
	symbol := ColorGreen.Sprint("[?]")
	if masked {
		symbol = ColorGray.Sprint("[?]")
	}

	fmt.Fprintf(Output, "%s%s %s: ", indent, symbol, fmt.Sprintf(msg, v...))
}

// IsDebug returns true if debug mode is enabled
func IsDebug() bool {
	return os.Getenv(debugEnvName) == debugEnvValue
}

// Debug prints to the console if INKVAULT_DEBUG is set
func Debug(msg string, v ...interface{}) {
	if IsDebug() {
		fmt.Fprintf(Output, "%s %s", ColorGray.Sprint("DEBUG:"), fmt.Sprintf(msg, v...))
	}
}
