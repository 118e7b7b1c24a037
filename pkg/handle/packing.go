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

	semver "github.com/hashicorp/go-version"
)

// Packing describes how the externally visible handle value is assembled
// from the slot index and the slot reuse counter.
type Packing struct {
	// IndexMask selects the slot index bits of the handle.
	IndexMask uint32
	// UniqShift is the position of the reuse counter inside the handle.
	UniqShift uint32
	// UniqMask selects the reuse counter bits before shifting.
	UniqMask uint32
}

// Pack computes the handle value for the given slot.
func (p Packing) Pack(index uint32, uniq uint16) uint32 {
	return (index & p.IndexMask) | ((uint32(uniq) & p.UniqMask) << p.UniqShift)
}

// Index extracts the slot index from the handle value.
func (p Packing) Index(h uint32) uint32 { return h & p.IndexMask }

// Uniq extracts the reuse counter from the handle value.
func (p Packing) Uniq(h uint32) uint16 { return uint16((h >> p.UniqShift) & p.UniqMask) }

// Win32kPacking is the handle layout used by win32k up to Windows 8.
var Win32kPacking = Packing{IndexMask: 0xffff, UniqShift: 16, UniqMask: 0xffff}

type packingRange struct {
	constraints semver.Constraints
	packing     Packing
}

var packings = []packingRange{
	{constraints: mustConstraint("< 6.2"), packing: Win32kPacking},
}

func mustConstraint(s string) semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func osVersion(major, minor int) (*semver.Version, error) {
	return semver.NewVersion(fmt.Sprintf("%d.%d", major, minor))
}

// PackingFor returns the handle packing used by the given Windows version.
func PackingFor(major, minor int) (Packing, bool) {
	v, err := osVersion(major, minor)
	if err != nil {
		return Packing{}, false
	}
	for _, p := range packings {
		if p.constraints.Check(v) {
			return p.packing, true
		}
	}
	return Packing{}, false
}

// SupportedLayout determines whether the handle table of the given OS
// version can be decoded. The table format changed in Windows 8 (6.2).
// Profiles without version metadata report 0.0 and are accepted.
func SupportedLayout(os string, major, minor int) bool {
	if os != "windows" {
		return false
	}
	_, ok := PackingFor(major, minor)
	return ok
}
