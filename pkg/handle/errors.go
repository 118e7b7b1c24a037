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

package handle

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

// ErrTableNotFound is yielded when the handle table base can't be resolved in the address space.
var ErrTableNotFound = errors.New("handle table not found")

// SlotError signals a table slot couldn't be read.
type SlotError struct {
	Index uint32
	Addr  va.Address
	Err   error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("unable to read handle table slot %d at 0x%s: %v", e.Index, e.Addr, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// BoundsError is yielded when the handle table declares more entries than fit in its size.
type BoundsError struct {
	Count     uint64
	EntrySize uint32
	TableSize uint64
}

func (e *BoundsError) Error() string {
	if e.EntrySize == 0 {
		return "invalid handle table: zero entry size"
	}
	return fmt.Sprintf("invalid handle table: %d entries of %d bytes exceed the table size of %d bytes",
		e.Count, e.EntrySize, e.TableSize)
}

// PayloadError signals the typed object behind an entry couldn't be read.
type PayloadError struct {
	Type types.Type
	Addr va.Address
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("unable to read %s object at 0x%s: %v", e.Type, e.Addr, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// IsSlotError returns true if the error is a slot read failure.
func IsSlotError(err error) bool {
	var e *SlotError
	return errors.As(err, &e)
}

// IsBoundsError returns true if the error is a table bounds violation.
func IsBoundsError(err error) bool {
	var e *BoundsError
	return errors.As(err, &e)
}
