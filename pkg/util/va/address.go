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

package va

import (
	"strconv"
	"strings"
)

// Address represents the memory address
type Address uint64

const (
	// userRangeEnd32 is the first address above the user-mode partition on 32-bit targets.
	userRangeEnd32 Address = 0x80000000
	// userRangeEnd64 is the first address above the user-mode partition on 64-bit targets.
	userRangeEnd64 Address = 0x80000000000
)

// Hex returns the hexadecimal representation of the memory address.
func (a Address) String() string { return strconv.FormatUint(uint64(a), 16) }
func (a Address) Uint64() uint64 { return uint64(a) }
func (a Address) IsZero() bool   { return a == 0 }

// Inc increments the address by given offset.
func (a Address) Inc(offset uint64) Address {
	a += Address(offset)
	return a
}

// Dec decrements the address by given offset.
func (a Address) Dec(offset uint64) Address {
	a -= Address(offset)
	return a
}

// InSystemRange determines if this address is in the system address space range.
// The kernel preferentially uses these two ranges to load DLLs at shared addresses.
func (a Address) InSystemRange() bool { return a >= 0xfffff80000000000 && a < 0xffffffffffffffff }

// InUserRange determines if the address falls into the user-mode
// partition of a target with the given pointer size in bytes.
func (a Address) InUserRange(ptrSize int) bool {
	if ptrSize == 4 {
		return a < userRangeEnd32
	}
	return a < userRangeEnd64
}

// Normalize converts a pointer that was stored as a user-mode view of
// a shared section into the kernel view by adding the shared delta.
// Null pointers and pointers already in the kernel partition are
// returned unchanged. The result is truncated to the pointer width.
func (a Address) Normalize(delta uint64, ptrSize int) Address {
	if a == 0 || delta == 0 || !a.InUserRange(ptrSize) {
		return a
	}
	n := a + Address(delta)
	if ptrSize == 4 {
		n &= 0xffffffff
	}
	return n
}

// MarshalJSON renders the address as a hexadecimal string.
func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + a.String() + `"`), nil
}

// UnmarshalJSON parses the address from a hexadecimal string or a number.
func (a *Address) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return err
	}
	*a = Address(v)
	return nil
}
