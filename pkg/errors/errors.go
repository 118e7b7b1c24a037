/*
 * Copyright 2021-present by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLayout is returned when the target OS version uses a USER handle
	// table layout this decoder cannot parse. It is fatal and reported before any output.
	ErrUnsupportedLayout = errors.New("this command does not support the selected profile")

	// ErrProfileNotFound is thrown when the requested profile is neither built-in nor loaded from disk
	ErrProfileNotFound = func(name string, suggestions []string) error {
		if len(suggestions) == 0 {
			return fmt.Errorf("%q profile not found", name)
		}
		return fmt.Errorf("%q profile not found. Did you mean %v?", name, suggestions)
	}

	// ErrImageRequired signals that the command needs a snapshot image to operate on
	ErrImageRequired = errors.New("no memory image specified. Please use the --image flag")
)

// ErrFieldNotFound is the error is thrown when a field is not present in the structure layout
type ErrFieldNotFound struct {
	Struct string
	Name   string
}

// Error returns the error message.
func (e ErrFieldNotFound) Error() string {
	return "couldn't find " + e.Name + " in " + e.Struct + " layout"
}

// IsUnsupportedLayout determines if the error being passed is of `ErrUnsupportedLayout` type.
func IsUnsupportedLayout(err error) bool { return errors.Is(err, ErrUnsupportedLayout) }

// IsFieldNotFound returns true if the error is FieldNotFound.
func IsFieldNotFound(err error) bool {
	var e *ErrFieldNotFound
	return errors.As(err, &e)
}
