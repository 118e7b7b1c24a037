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

// Package mem provides read-only access to the memory of a snapshotted
// target. Every read either returns all requested bytes or fails with
// an UnmappedError, there are no partial reads.
package mem

import (
	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/util/bytes"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

// AddressSpace exposes byte-range reads at a virtual address.
type AddressSpace interface {
	// Read returns n bytes starting at addr or an error if any byte in the range is not mapped.
	Read(addr va.Address, n int) ([]byte, error)
}

// UnmappedError is returned when the requested range touches memory that
// is not present in the address space.
type UnmappedError struct {
	// Addr is the first address of the range that couldn't be resolved.
	Addr va.Address
	// Len is the number of requested bytes.
	Len int
}

// Error returns the error message.
func (e *UnmappedError) Error() string {
	return "unmapped memory at 0x" + e.Addr.String()
}

// IsUnmapped returns true if the error, or any error it wraps, is UnmappedError.
func IsUnmapped(err error) bool {
	var e *UnmappedError
	return errors.As(err, &e)
}

// end computes the exclusive end of the range and reports whether the
// range wraps around the address space.
func end(addr va.Address, n int) (va.Address, bool) {
	e := addr + va.Address(n)
	return e, e < addr
}

// ReadPointer reads the pointer of the given width at the specified address.
func ReadPointer(as AddressSpace, addr va.Address, size int) (va.Address, error) {
	b, err := as.Read(addr, size)
	if err != nil {
		return 0, err
	}
	return va.Address(bytes.ReadPointer(b, size)), nil
}

// Readable reports whether the byte at the given address is mapped.
func Readable(as AddressSpace, addr va.Address) bool {
	if addr.IsZero() {
		return false
	}
	_, err := as.Read(addr, 1)
	return err == nil
}
