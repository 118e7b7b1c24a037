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
	"errors"
	"testing"

	uerrors "github.com/rabbitstack/usertable/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/rabbitstack/usertable/pkg/util/va"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWalkDecodesEntries(t *testing.T) {
	f := newFixture(t)
	si := f.table(standardSlots())

	entries, errs := collect(f.scanner().Walk(si, Options{}))
	require.Empty(t, errs)
	assert.Equal(t, []uint32{1, 2, 4, 5, 6, 7}, indices(entries))

	win := entries[0]
	assert.Equal(t, tableAddr.Inc(entrySize), win.Addr)
	assert.Equal(t, head(1), win.Head)
	assert.Equal(t, uint32(0x10001), win.Handle)
	assert.Equal(t, types.TypeWindow, win.Type)
	assert.False(t, win.Free)
	require.True(t, win.HasTID)
	require.True(t, win.HasPID)
	assert.Equal(t, uint64(1234), win.TID)
	assert.Equal(t, uint64(4321), win.PID)
	assert.Equal(t, "explorer.exe", win.ProcessName)
	require.NotNil(t, win.HeadHandle)
	assert.Equal(t, win.Handle, *win.HeadHandle)
	assert.False(t, win.HeadMismatch())

	menu := entries[1]
	assert.Equal(t, types.TypeMenu, menu.Type)
	assert.False(t, menu.HasTID)
	require.True(t, menu.HasPID)
	assert.Equal(t, uint64(4321), menu.PID)

	marked := entries[4]
	assert.Equal(t, uint32(0x70006), marked.Handle)
	assert.Equal(t, types.MarkedOK, marked.Flags)

	timer := entries[5]
	assert.Equal(t, uint64(999), timer.PID)
	assert.Equal(t, "csrss.exe", timer.ProcessName)
	assert.Nil(t, timer.Object, "objects are resolved only on request")
}

func TestWalkDeterministic(t *testing.T) {
	f := newFixture(t)
	si := f.table(standardSlots())
	s := f.scanner()
	opts := Options{IncludeFree: true, ResolveObjects: true}

	first, errs := collect(s.Walk(si, opts))
	require.Empty(t, errs)
	second, errs := collect(s.Walk(si, opts))
	require.Empty(t, errs)
	assert.Equal(t, first, second)
	require.Len(t, first, 8)
}

func TestWalkStopsEarly(t *testing.T) {
	f := newFixture(t)
	si := f.table(standardSlots())

	n := 0
	for e, err := range f.scanner().Walk(si, Options{IncludeFree: true}) {
		require.NoError(t, err)
		require.NotNil(t, e)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestWalkFreeEntries(t *testing.T) {
	f := newFixture(t)
	si := f.table(standardSlots())

	entries, errs := collect(f.scanner().Walk(si, Options{IncludeFree: true}))
	require.Empty(t, errs)
	require.Len(t, entries, 8)
	free := entries[3]
	assert.True(t, free.Free)
	assert.Equal(t, uint32(0x50003), free.Handle)
	assert.Equal(t, ptiAddr, free.Owner)
	assert.False(t, free.HasPID)
	assert.Nil(t, free.HeadHandle)
}

func TestWalkDerefFree(t *testing.T) {
	f := newFixture(t)
	slots := standardSlots()
	slots[3].head = head(3)
	slots[3].object = make([]byte, 0x10)
	slots[0].owner = ppi2Addr
	si := f.table(slots)

	entries, errs := collect(f.scanner().Walk(si, Options{IncludeFree: true, DerefFree: true, ResolveObjects: true}))
	require.Empty(t, errs)
	require.Len(t, entries, 8)

	free := entries[3]
	assert.True(t, free.Free)
	assert.Equal(t, head(3), free.Head)
	require.NotNil(t, free.HeadHandle)
	assert.Equal(t, uint32(0x50003), *free.HeadHandle)
	require.True(t, free.HasTID)
	require.True(t, free.HasPID)
	assert.Equal(t, uint64(1234), free.TID)
	assert.Equal(t, uint64(4321), free.PID)
	assert.Equal(t, "explorer.exe", free.ProcessName)
	assert.Nil(t, free.Object)

	// the owner of this slot is a process info
	procOwned := entries[0]
	assert.False(t, procOwned.HasTID)
	require.True(t, procOwned.HasPID)
	assert.Equal(t, uint64(999), procOwned.PID)
	assert.Nil(t, procOwned.HeadHandle)

	entries, errs = collect(f.scanner().Walk(si, Options{IncludeFree: true, ResolveObjects: true}))
	require.Empty(t, errs)
	require.Len(t, entries, 8)
	assert.False(t, entries[3].HasPID)
	assert.False(t, entries[3].HasTID)
	assert.Nil(t, entries[3].HeadHandle)
	assert.False(t, entries[0].HasPID)
}

func TestWalkDecodesEntriesX86(t *testing.T) {
	f := newLayoutFixture(t, x86Layout)
	f.owner(ptiAddr32, ppiAddr32, ethreadAddr32, eprocAddr32, 2048, 716, "winlogon.exe")
	si := f.table([]slot{
		{typ: types.TypeFree},
		{typ: types.TypeWindow, uniq: 3, owner: ptiAddr32, head: userHead(1), object: make([]byte, 0x10)},
		{typ: types.TypeTimer, uniq: 9, owner: ppiAddr32, head: userHead(2), object: make([]byte, 0x48)},
		{typ: types.TypeMenu, uniq: 1, owner: ppiAddr32, head: objectBase32.Inc(0x300), object: make([]byte, 0x10)},
	})

	entries, errs := collect(f.scanner().Walk(si, Options{}))
	require.Empty(t, errs)
	assert.Equal(t, []uint32{1, 2, 3}, indices(entries))

	win := entries[0]
	assert.Equal(t, tableAddr32.Inc(entrySize32), win.Addr)
	assert.Equal(t, objectBase32.Inc(0x100), win.Head)
	assert.Equal(t, ptiAddr32, win.Owner)
	assert.Equal(t, uint32(0x30001), win.Handle)
	assert.Equal(t, types.TypeWindow, win.Type)
	require.True(t, win.HasTID)
	require.True(t, win.HasPID)
	assert.Equal(t, uint64(2048), win.TID)
	assert.Equal(t, uint64(716), win.PID)
	assert.Equal(t, "winlogon.exe", win.ProcessName)
	require.NotNil(t, win.HeadHandle)
	assert.False(t, win.HeadMismatch())

	timer := entries[1]
	assert.Equal(t, objectBase32.Inc(0x200), timer.Head)
	assert.Equal(t, uint32(0x90002), timer.Handle)
	assert.False(t, timer.HasTID)
	assert.Equal(t, uint64(716), timer.PID)

	// kernel pointers are left as they are
	menu := entries[2]
	assert.Equal(t, objectBase32.Inc(0x300), menu.Head)
	require.NotNil(t, menu.HeadHandle)
	assert.Equal(t, uint32(0x10003), *menu.HeadHandle)
}

func TestWalkFilterConjunction(t *testing.T) {
	pid := func(v uint64) *uint64 { return &v }
	typ := func(v types.Type) *types.Type { return &v }

	var tests = []struct {
		name     string
		opts     Options
		expected []uint32
	}{
		{"exclude free", Options{}, []uint32{1, 2, 4, 5, 6, 7}},
		{"include free", Options{IncludeFree: true}, []uint32{0, 1, 2, 3, 4, 5, 6, 7}},
		{"type", Options{Type: typ(types.TypeWindow)}, []uint32{1, 4, 6}},
		{"pid", Options{PID: pid(4321)}, []uint32{1, 2, 6}},
		{"pid and type", Options{PID: pid(4321), Type: typ(types.TypeWindow)}, []uint32{1, 6}},
		{"other pid and type", Options{PID: pid(999), Type: typ(types.TypeTimer)}, []uint32{7}},
		{"free type", Options{IncludeFree: true, Type: typ(types.TypeFree)}, []uint32{0, 3}},
		{"free type excluded", Options{Type: typ(types.TypeFree)}, []uint32{}},
		{"no match", Options{PID: pid(1)}, []uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			si := f.table(standardSlots())
			entries, errs := collect(f.scanner().Walk(si, tt.opts))
			require.Empty(t, errs)
			assert.Equal(t, tt.expected, indices(entries))
		})
	}
}

func TestWalkUnmappedSlots(t *testing.T) {
	f := newFixture(t)
	slots := standardSlots()
	slots[2].unmapped = true
	slots[5].unmapped = true
	si := f.table(slots)

	entries, errs := collect(f.scanner().Walk(si, Options{IncludeFree: true}))
	assert.Equal(t, []uint32{0, 1, 3, 4, 6, 7}, indices(entries))
	require.Len(t, errs, 2)

	var failed []uint32
	for _, err := range errs {
		var serr *SlotError
		require.True(t, errors.As(err, &serr))
		assert.True(t, mem.IsUnmapped(err))
		failed = append(failed, serr.Index)
	}
	assert.Equal(t, []uint32{2, 5}, failed)
}

func TestWalkBoundsViolation(t *testing.T) {
	var tests = []struct {
		name string
		si   *session.SharedInfo
	}{
		{"count exceeds size", &session.SharedInfo{HandleTable: tableAddr, EntrySize: entrySize, EntryCount: 100, TableSize: 10 * entrySize}},
		{"zero entry size", &session.SharedInfo{HandleTable: tableAddr, EntrySize: 0, EntryCount: 10, TableSize: 10 * entrySize}},
		{"entry smaller than slot", &session.SharedInfo{HandleTable: tableAddr, EntrySize: 0x10, EntryCount: 10, TableSize: 10 * 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := new(mockAddressSpace)
			s, err := NewScanner(as, loadProfile(t, "Win7SP1x64"))
			require.NoError(t, err)

			entries, errs := collect(s.Walk(tt.si, Options{IncludeFree: true}))
			assert.Empty(t, entries)
			require.Len(t, errs, 1)
			assert.True(t, IsBoundsError(errs[0]))
			as.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
		})
	}
}

func TestWalkTableNotFound(t *testing.T) {
	f := newFixture(t)
	s := f.scanner()

	for _, base := range []va.Address{0, tableAddr} {
		si := &session.SharedInfo{HandleTable: base, EntrySize: entrySize, EntryCount: 4, TableSize: 4 * entrySize}
		entries, errs := collect(s.Walk(si, Options{}))
		assert.Empty(t, entries)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrTableNotFound)
	}
}

func TestWalkEmptyTable(t *testing.T) {
	as := new(mockAddressSpace)
	s, err := NewScanner(as, loadProfile(t, "Win7SP1x64"))
	require.NoError(t, err)

	entries, errs := collect(s.Walk(&session.SharedInfo{HandleTable: tableAddr, EntrySize: entrySize}, Options{}))
	assert.Empty(t, entries)
	assert.Empty(t, errs)
	as.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestUnsupportedLayoutShortCircuit(t *testing.T) {
	as := new(mockAddressSpace)
	s, err := NewScanner(as, loadProfile(t, "Win8SP0x64"))
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, uerrors.IsUnsupportedLayout(err))
	as.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
}

func TestUnknownTypePassthrough(t *testing.T) {
	f := newFixture(t)
	si := f.table([]slot{
		{typ: types.TypeWindow, uniq: 1, owner: ptiAddr, head: head(0), object: make([]byte, 0x10)},
		{typ: types.Type(0x40), uniq: 9, owner: ptiAddr, head: head(1), object: make([]byte, 0x10)},
	})

	entries, errs := collect(f.scanner().Walk(si, Options{ResolveObjects: true}))
	require.Empty(t, errs)
	require.Len(t, entries, 2)

	e := entries[1]
	assert.False(t, e.Type.IsKnown())
	assert.Equal(t, "Unknown(0x40)", e.Type.String())
	assert.Equal(t, uint32(0x90001), e.Handle)
	assert.Equal(t, head(1), e.Head)
	assert.Equal(t, ptiAddr, e.Owner)
	assert.False(t, e.HasPID)
	assert.Nil(t, e.Object)
	assert.NoError(t, e.ObjectErr)
}

func TestTables(t *testing.T) {
	f := newFixture(t)
	si := f.table(standardSlots())
	si.SharedDelta = 0
	f.sharedInfo(si)

	loc := session.NewStaticLocator(
		session.Session{ID: 2, SharedInfo: 0},
		session.Session{ID: 1, SharedInfo: sharedInfo},
	)
	s := f.scanner()

	var (
		tables []*Table
		errs   []error
	)
	for table, err := range s.Tables(loc) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tables = append(tables, table)
	}
	require.Len(t, tables, 1)
	require.Len(t, errs, 1)

	assert.Equal(t, uint32(1), tables[0].Session.ID)
	assert.Equal(t, tableAddr, tables[0].SharedInfo.HandleTable)
	assert.Equal(t, uint64(8), tables[0].SharedInfo.EntryCount)

	var serr *SessionError
	require.True(t, errors.As(errs[0], &serr))
	assert.Equal(t, uint32(2), serr.ID)
	assert.ErrorIs(t, errs[0], session.ErrNoSharedInfo)

	entries, werrs := collect(s.Walk(tables[0].SharedInfo, Options{}))
	require.Empty(t, werrs)
	assert.Len(t, entries, 6)
}

func TestSupportedLayout(t *testing.T) {
	var tests = []struct {
		os           string
		major, minor int
		supported    bool
	}{
		{"windows", 5, 1, true},
		{"windows", 6, 0, true},
		{"windows", 6, 1, true},
		{"windows", 6, 2, false},
		{"windows", 6, 3, false},
		{"windows", 10, 0, false},
		{"windows", 4, 0, true},
		{"windows", 0, 0, true},
		{"linux", 6, 1, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.supported, SupportedLayout(tt.os, tt.major, tt.minor), "%s %d.%d", tt.os, tt.major, tt.minor)
	}
}

func TestPacking(t *testing.T) {
	p, ok := PackingFor(6, 1)
	require.True(t, ok)
	assert.Equal(t, Win32kPacking, p)

	p, ok = PackingFor(4, 0)
	require.True(t, ok)
	assert.Equal(t, Win32kPacking, p)

	_, ok = PackingFor(6, 2)
	require.False(t, ok)

	h := p.Pack(0x1c, 0x3)
	assert.Equal(t, uint32(0x3001c), h)
	assert.Equal(t, uint32(0x1c), p.Index(h))
	assert.Equal(t, uint16(0x3), p.Uniq(h))
	assert.Equal(t, uint32(0xffff0001), p.Pack(0x10001, 0xffff))
}
