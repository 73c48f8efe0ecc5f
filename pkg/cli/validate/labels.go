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

// Package validate provides validations of user input
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

// MaxLabelLength is the maximum number of characters in a label name
const MaxLabelLength = 64

var reservedLabelNames = []string{"archived", "conflicts", "protected"}

var colors = []string{"red", "orange", "yellow", "green", "teal", "blue", "purple", "pink", "brown", "gray"}

// ErrLabelNameReserved is an error incidating that the specified label name is reserved
var ErrLabelNameReserved = errors.New("The label name is reserved")

// ErrLabelNameHasSpace is an error for a label name that has any space
var ErrLabelNameHasSpace = errors.New("The label name cannot contain spaces")

// ErrLabelNameEmpty is an error for an empty label name
var ErrLabelNameEmpty = errors.New("The label name is empty")

// ErrLabelNameMultiline is an error for a label name that has linebreaks
var ErrLabelNameMultiline = errors.New("The label name contains multiple lines")

// ErrLabelNameTooLong is an error for a label name longer than MaxLabelLength
var ErrLabelNameTooLong = errors.New("The label name is too long")

// ErrColorInvalid is an error for a color outside of the palette
var ErrColorInvalid = errors.New("The color is not one of " + strings.Join(colors, ", "))

// ErrKindInvalid is an error for an unknown record kind
var ErrKindInvalid = errors.New("The kind must be one of note, todo, label")

func isReservedName(name string) bool {
	for _, n := range reservedLabelNames {
		if name == n {
			return true
		}
	}

	return false
}

// LabelName validates a label name
func LabelName(name string) error {
	if name == "" {
		return ErrLabelNameEmpty
	}

	if isReservedName(name) {
		return ErrLabelNameReserved
	}

	if strings.Contains(name, "\n") || strings.Contains(name, "\r\n") {
		return ErrLabelNameMultiline
	}

	if strings.ContainsAny(name, " \t") {
		return ErrLabelNameHasSpace
	}

	if utf8.RuneCountInString(name) > MaxLabelLength {
		return ErrLabelNameTooLong
	}

	return nil
}

// Color validates a label color. An empty color is allowed.
func Color(c string) error {
	if c == "" {
		return nil
	}

	for _, candidate := range colors {
		if c == candidate {
			return nil
		}
	}

	return ErrColorInvalid
}

// Kind validates a record kind that can be created from the command line.
// Files are attached by other clients.
func Kind(k string) error {
	switch record.Kind(k) {
	case record.KindNote, record.KindTodo, record.KindLabel:
		return nil
	}

	return ErrKindInvalid
}
