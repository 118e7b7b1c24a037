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

// Package session enumerates GUI sessions of the snapshotted target and
// resolves the win32k shared-info structure of each session.
package session

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

// ErrNoSharedInfo signals the session has no resolvable shared-info
// structure. This is not fatal, a session may legitimately lack GUI state.
var ErrNoSharedInfo = errors.New("cannot find win32k!gSharedInfo")

// Session identifies a terminal services session.
type Session struct {
	// ID is the session identifier.
	ID uint32
	// SharedInfo is the address of win32k!gSharedInfo in the session space. Zero if unknown.
	SharedInfo va.Address
}

// Locator yields the set of active sessions.
type Locator interface {
	// Sessions returns the sessions in ascending session id order.
	Sessions() ([]Session, error)
}

type staticLocator struct {
	sessions []Session
}

// NewStaticLocator returns the locator over a fixed list of sessions, such as
// the ones recorded in the snapshot image metadata.
func NewStaticLocator(sessions ...Session) Locator {
	s := make([]Session, len(sessions))
	copy(s, sessions)
	sort.SliceStable(s, func(i, j int) bool { return s[i].ID < s[j].ID })
	return staticLocator{sessions: s}
}

func (l staticLocator) Sessions() ([]Session, error) { return l.sessions, nil }

// SharedInfo is a read-only snapshot of tagSHAREDINFO and the handle table
// parameters taken from the server info structure it points to.
type SharedInfo struct {
	// Addr is the address of the shared info structure.
	Addr va.Address
	// Psi is the address of tagSERVERINFO.
	Psi va.Address
	// HandleTable is the address of the first handle table entry (aheList).
	HandleTable va.Address
	// EntrySize is the size of a single handle table entry.
	EntrySize uint32
	// EntryCount is the number of handle table entries.
	EntryCount uint64
	// TableSize is the declared size of the handle table in bytes (cbHandleTable).
	TableSize uint64
	// SharedDelta converts user-mode views of the desktop heap into kernel addresses.
	SharedDelta uint64
	// PointerSize is the pointer width of the target.
	PointerSize int
}

// String returns a string representation of the shared info.
func (s *SharedInfo) String() string {
	return fmt.Sprintf("SharedInfo: 0x%s, aheList: 0x%s, Table size: 0x%x, Entry size: 0x%x, Entries: %d, Shared delta: %d",
		s.Addr, s.HandleTable, s.TableSize, s.EntrySize, s.EntryCount, s.SharedDelta)
}

// Normalize converts the stored pointer into an absolute kernel address.
func (s *SharedInfo) Normalize(addr va.Address) va.Address {
	return addr.Normalize(s.SharedDelta, s.PointerSize)
}

// FindSharedInfo reads the shared info structure of the session. Every call
// reads the structure anew since the target may change between queries.
func (s Session) FindSharedInfo(as mem.AddressSpace, prof *profile.Profile) (*SharedInfo, error) {
	if s.SharedInfo.IsZero() {
		return nil, ErrNoSharedInfo
	}
	si := &SharedInfo{Addr: s.SharedInfo, PointerSize: prof.PointerSize()}

	delta, err := prof.ReadUint(as, "tagSHAREDINFO", "ulSharedDelta", s.SharedInfo)
	if err != nil {
		return nil, wrap(err)
	}
	si.SharedDelta = delta
	psi, err := prof.ReadPointer(as, "tagSHAREDINFO", "psi", s.SharedInfo)
	if err != nil {
		return nil, wrap(err)
	}
	si.Psi = si.Normalize(psi)
	ahe, err := prof.ReadPointer(as, "tagSHAREDINFO", "aheList", s.SharedInfo)
	if err != nil {
		return nil, wrap(err)
	}
	si.HandleTable = si.Normalize(ahe)

	// older layouts don't carry the entry size in the shared info
	if prof.Has("tagSHAREDINFO", "HeEntrySize") {
		size, err := prof.ReadUint(as, "tagSHAREDINFO", "HeEntrySize", s.SharedInfo)
		if err != nil {
			return nil, wrap(err)
		}
		si.EntrySize = uint32(size)
	} else {
		size, err := prof.Size("_HANDLEENTRY")
		if err != nil {
			return nil, err
		}
		si.EntrySize = size
	}

	hasCount, hasSize := prof.Has("tagSERVERINFO", "cHandleEntries"), prof.Has("tagSERVERINFO", "cbHandleTable")
	if !hasCount && !hasSize {
		return nil, errors.Errorf("%s profile describes neither the handle count nor the handle table size", prof.Name)
	}
	if hasCount {
		si.EntryCount, err = prof.ReadUint(as, "tagSERVERINFO", "cHandleEntries", si.Psi)
		if err != nil {
			return nil, wrap(err)
		}
	}
	if hasSize {
		si.TableSize, err = prof.ReadUint(as, "tagSERVERINFO", "cbHandleTable", si.Psi)
		if err != nil {
			return nil, wrap(err)
		}
	}
	switch {
	case !hasSize:
		si.TableSize = si.EntryCount * uint64(si.EntrySize)
	case !hasCount && si.EntrySize > 0:
		si.EntryCount = si.TableSize / uint64(si.EntrySize)
	}
	return si, nil
}

func wrap(err error) error {
	return errors.Wrap(ErrNoSharedInfo, err.Error())
}
