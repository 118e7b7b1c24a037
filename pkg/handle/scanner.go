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

// Package handle walks the win32k USER handle table and decodes its entries.
package handle

import (
	"expvar"
	"iter"

	"github.com/pkg/errors"
	uerrors "github.com/rabbitstack/usertable/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/session"
	log "github.com/sirupsen/logrus"
)

var (
	slotReadFailures    = expvar.NewInt("handle.slot.read.failures")
	tableBoundsFailures = expvar.NewInt("handle.table.bounds.failures")
	tablesNotFound      = expvar.NewInt("handle.table.not.found")
	entriesDecoded      = expvar.NewInt("handle.entries.decoded")
	sharedInfoMissing   = expvar.NewInt("handle.sharedinfo.missing")
)

// Scanner walks handle tables of a single address space.
type Scanner struct {
	as      mem.AddressSpace
	prof    *profile.Profile
	packing Packing
	readers Readers
}

// NewScanner creates the handle table scanner for the address space described
// by the profile. It fails with ErrUnsupportedLayout if the profile describes
// a table format this package can't decode. No memory is read at this point.
func NewScanner(as mem.AddressSpace, prof *profile.Profile, readers ...ObjectReader) (*Scanner, error) {
	m := prof.Metadata
	if !SupportedLayout(m.OS, m.Major, m.Minor) {
		return nil, errors.Wrapf(uerrors.ErrUnsupportedLayout, "%s (%s)", prof.Name, m)
	}
	packing, _ := PackingFor(m.Major, m.Minor)
	if len(readers) == 0 {
		readers = NewReaders(prof)
	}
	return &Scanner{as: as, prof: prof, packing: packing, readers: readers}, nil
}

// Profile returns the profile the scanner decodes structures with.
func (s *Scanner) Profile() *profile.Profile { return s.prof }

// AddressSpace returns the address space the scanner reads from.
func (s *Scanner) AddressSpace() mem.AddressSpace { return s.as }

// checkBounds ensures all entries fit within the declared table size.
func (s *Scanner) checkBounds(si *session.SharedInfo) error {
	err := &BoundsError{Count: si.EntryCount, EntrySize: si.EntrySize, TableSize: si.TableSize}
	if si.EntrySize == 0 {
		return err
	}
	size, serr := s.prof.Size("_HANDLEENTRY")
	if serr != nil {
		return serr
	}
	// every slot read spans the structure size
	if si.EntrySize < size {
		return err
	}
	if si.EntryCount > si.TableSize/uint64(si.EntrySize) {
		return err
	}
	if si.EntryCount > uint64(^uint32(0)) {
		return err
	}
	return nil
}

// Walk returns the sequence of entries of the handle table that satisfy
// the filters derived from the options. Entries come in ascending slot
// order. Recoverable failures are yielded as errors with a nil entry:
// a *BoundsError or ErrTableNotFound terminates the sequence, while a
// *SlotError only skips the affected slot. The sequence can be stopped
// at any time.
func (s *Scanner) Walk(si *session.SharedInfo, opts Options) iter.Seq2[*types.Entry, error] {
	filters := opts.Filters()
	return func(yield func(*types.Entry, error) bool) {
		if err := s.checkBounds(si); err != nil {
			tableBoundsFailures.Add(1)
			yield(nil, err)
			return
		}
		if si.EntryCount == 0 {
			return
		}
		if !mem.Readable(s.as, si.HandleTable) {
			tablesNotFound.Add(1)
			yield(nil, ErrTableNotFound)
			return
		}
		dec := NewDecoder(s.as, s.prof, s.packing, si, opts.DerefFree)
		for i := uint64(0); i < si.EntryCount; i++ {
			e, err := dec.Decode(si.HandleTable, uint32(i))
			if err != nil {
				slotReadFailures.Add(1)
				log.WithField("slot", i).Debug(err)
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !filters.Match(e) {
				continue
			}
			if opts.ResolveObjects && (!e.Free || opts.DerefFree) {
				s.readers.Resolve(e, s.as)
			}
			entriesDecoded.Add(1)
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Table is the handle table of a single session.
type Table struct {
	Session    session.Session
	SharedInfo *session.SharedInfo
}

// SessionError signals the session handle table couldn't be located.
type SessionError struct {
	ID  uint32
	Err error
}

func (e *SessionError) Error() string {
	return errors.Wrapf(e.Err, "session %d", e.ID).Error()
}

func (e *SessionError) Unwrap() error { return e.Err }

// Tables returns the handle tables of all sessions yielded by the locator in
// ascending session order. Sessions without shared info are yielded as
// *SessionError and the enumeration continues with the next session. The
// locator failure is yielded as is and ends the sequence.
func (s *Scanner) Tables(loc session.Locator) iter.Seq2[*Table, error] {
	return func(yield func(*Table, error) bool) {
		sessions, err := loc.Sessions()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, sess := range sessions {
			si, err := sess.FindSharedInfo(s.as, s.prof)
			if err != nil {
				sharedInfoMissing.Add(1)
				log.WithField("session", sess.ID).Debugf("skipping session: %v", err)
				if !yield(nil, &SessionError{ID: sess.ID, Err: err}) {
					return
				}
				continue
			}
			if !yield(&Table{Session: sess, SharedInfo: si}, nil) {
				return
			}
		}
	}
}
