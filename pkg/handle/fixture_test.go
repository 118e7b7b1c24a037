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
	"iter"
	"testing"

	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/rabbitstack/usertable/pkg/util/bytes"
	"github.com/rabbitstack/usertable/pkg/util/va"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	tableAddr  = va.Address(0xfffff900c0400000)
	objectBase = va.Address(0xfffff900c2000000)
	sharedInfo = va.Address(0xfffff97fff000000)
	serverInfo = va.Address(0xfffff900c0600000)
	entrySize  = 0x18

	ptiAddr     = va.Address(0xfffff900c1000000)
	ppiAddr     = va.Address(0xfffff900c1100000)
	ethreadAddr = va.Address(0xfffffa8001000000)
	eprocAddr   = va.Address(0xfffffa8002000000)

	pti2Addr     = va.Address(0xfffff900c1200000)
	ppi2Addr     = va.Address(0xfffff900c1300000)
	ethread2Addr = va.Address(0xfffffa8003000000)
	eproc2Addr   = va.Address(0xfffffa8004000000)
)

// 32-bit target. Heads are stored as user-mode views of the shared
// section and land on objectBase32 once the shared delta is applied.
const (
	tableAddr32  = va.Address(0xfe400000)
	userBase32   = va.Address(0x01800000)
	objectBase32 = va.Address(0xfe800000)
	sharedDelta  = uint64(objectBase32 - userBase32)
	entrySize32  = 0xc

	ptiAddr32     = va.Address(0xfe900000)
	ppiAddr32     = va.Address(0xfe910000)
	ethreadAddr32 = va.Address(0x85001000)
	eprocAddr32   = va.Address(0x85002000)
)

// layout holds the structure offsets the fixture writes for a profile.
type layout struct {
	profile   string
	ptrSize   int
	table     va.Address
	entrySize int
	delta     uint64

	threadPPI  int
	ethreadPID int
	ethreadTID int
	eprocPID   int
	eprocName  int
}

var (
	x64Layout = layout{
		profile:    "Win7SP1x64",
		ptrSize:    8,
		table:      tableAddr,
		entrySize:  entrySize,
		threadPPI:  0x158,
		ethreadPID: 0x3b0,
		ethreadTID: 0x3b8,
		eprocPID:   0x180,
		eprocName:  0x2e0,
	}
	x86Layout = layout{
		profile:    "Win7SP1x86",
		ptrSize:    4,
		table:      tableAddr32,
		entrySize:  entrySize32,
		delta:      sharedDelta,
		threadPPI:  0xb8,
		ethreadPID: 0x22c,
		ethreadTID: 0x230,
		eprocPID:   0xb4,
		eprocName:  0x16c,
	}
)

type mockAddressSpace struct {
	mock.Mock
}

func (m *mockAddressSpace) Read(addr va.Address, n int) ([]byte, error) {
	args := m.Called(addr, n)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

// slot describes a synthetic handle table entry. If object is not nil it
// is mapped at the head address with the packed handle stored in the header.
type slot struct {
	typ      types.Type
	flags    types.Flags
	uniq     uint16
	owner    va.Address
	head     va.Address
	object   []byte
	unmapped bool
}

type fixture struct {
	t    *testing.T
	as   *mem.Sparse
	prof *profile.Profile
	lay  layout
}

func loadProfile(t *testing.T, name string) *profile.Profile {
	r, err := profile.NewRegistry()
	require.NoError(t, err)
	p, err := r.Get(name)
	require.NoError(t, err)
	return p
}

func newFixture(t *testing.T) *fixture {
	f := newLayoutFixture(t, x64Layout)
	f.owner(ptiAddr, ppiAddr, ethreadAddr, eprocAddr, 1234, 4321, "explorer.exe")
	f.owner(pti2Addr, ppi2Addr, ethread2Addr, eproc2Addr, 88, 999, "csrss.exe")
	return f
}

func newLayoutFixture(t *testing.T, lay layout) *fixture {
	return &fixture{t: t, as: mem.NewSparse(), prof: loadProfile(t, lay.profile), lay: lay}
}

func head(i int) va.Address { return objectBase.Inc(uint64(i) * 0x100) }

// userHead is the user-mode view of the i-th object on the 32-bit target.
func userHead(i int) va.Address { return userBase32.Inc(uint64(i) * 0x100) }

func put64(b []byte, off int, v uint64) { bytes.TargetEndian.PutUint64(b[off:], v) }
func put32(b []byte, off int, v uint32) { bytes.TargetEndian.PutUint32(b[off:], v) }
func put16(b []byte, off int, v uint16) { bytes.TargetEndian.PutUint16(b[off:], v) }

func (f *fixture) putPtr(b []byte, off int, v uint64) {
	if f.lay.ptrSize == 4 {
		put32(b, off, uint32(v))
		return
	}
	put64(b, off, v)
}

func (f *fixture) mapRegion(addr va.Address, b []byte) {
	require.NoError(f.t, f.as.Map(addr, b))
}

func (f *fixture) owner(pti, ppi, ethread, eproc va.Address, tid, pid uint64, name string) {
	b := make([]byte, 0x3a0)
	f.putPtr(b, 0, uint64(ethread))
	f.putPtr(b, f.lay.threadPPI, uint64(ppi))
	f.mapRegion(pti, b)

	b = make([]byte, 0x300)
	f.putPtr(b, 0, uint64(eproc))
	f.mapRegion(ppi, b)

	b = make([]byte, 0x498)
	f.putPtr(b, f.lay.ethreadPID, pid)
	f.putPtr(b, f.lay.ethreadTID, tid)
	f.mapRegion(ethread, b)

	b = make([]byte, 0x4d0)
	f.putPtr(b, f.lay.eprocPID, pid)
	copy(b[f.lay.eprocName:], name)
	f.mapRegion(eproc, b)
}

// table lays out the slots at the layout's table address and returns the
// shared info describing them. Objects are mapped at the normalized head.
func (f *fixture) table(slots []slot) *session.SharedInfo {
	var (
		ptr  = f.lay.ptrSize
		size = f.lay.entrySize
	)
	for i, s := range slots {
		if s.unmapped {
			continue
		}
		b := make([]byte, size)
		f.putPtr(b, 0, uint64(s.head))
		f.putPtr(b, ptr, uint64(s.owner))
		b[2*ptr] = byte(s.typ)
		b[2*ptr+1] = byte(s.flags)
		put16(b, 2*ptr+2, s.uniq)
		f.mapRegion(f.lay.table.Inc(uint64(i*size)), b)
		if s.object != nil && !s.head.IsZero() {
			f.putPtr(s.object, 0, uint64(Win32kPacking.Pack(uint32(i), s.uniq)))
			f.mapRegion(s.head.Normalize(f.lay.delta, ptr), s.object)
		}
	}
	return &session.SharedInfo{
		Addr:        sharedInfo,
		Psi:         serverInfo,
		HandleTable: f.lay.table,
		EntrySize:   uint32(size),
		EntryCount:  uint64(len(slots)),
		TableSize:   uint64(len(slots) * size),
		SharedDelta: f.lay.delta,
		PointerSize: ptr,
	}
}

// sharedInfo maps the shared info and server info structures describing the table.
func (f *fixture) sharedInfo(si *session.SharedInfo) {
	b := make([]byte, 0x238)
	put64(b, 0, uint64(si.Psi))
	put64(b, 0x8, uint64(si.HandleTable))
	put32(b, 0x10, si.EntrySize)
	put64(b, 0x20, si.SharedDelta)
	f.mapRegion(si.Addr, b)

	b = make([]byte, 0x1470)
	put64(b, 0x8, si.EntryCount)
	put32(b, 0x1138, uint32(si.TableSize))
	f.mapRegion(si.Psi, b)
}

func (f *fixture) scanner() *Scanner {
	s, err := NewScanner(f.as, f.prof)
	require.NoError(f.t, err)
	return s
}

// standardSlots is a table with a mix of free and allocated slots owned by two processes.
func standardSlots() []slot {
	return []slot{
		{typ: types.TypeFree},
		{typ: types.TypeWindow, uniq: 1, owner: ptiAddr, head: head(1), object: make([]byte, 0x10)},
		{typ: types.TypeMenu, uniq: 2, owner: ppiAddr, head: head(2), object: make([]byte, 0x10)},
		{typ: types.TypeFree, uniq: 5, owner: ptiAddr},
		{typ: types.TypeWindow, uniq: 1, owner: pti2Addr, head: head(4), object: make([]byte, 0x10)},
		{typ: types.TypeHook, uniq: 3, owner: pti2Addr, head: head(5), object: make([]byte, 0x60)},
		{typ: types.TypeWindow, uniq: 7, flags: types.MarkedOK, owner: ptiAddr, head: head(6), object: make([]byte, 0x10)},
		{typ: types.TypeTimer, uniq: 4, owner: ppi2Addr, head: head(7), object: make([]byte, 0x48)},
	}
}

func collect(seq iter.Seq2[*types.Entry, error]) ([]*types.Entry, []error) {
	var (
		entries []*types.Entry
		errs    []error
	)
	for e, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

func indices(entries []*types.Entry) []uint32 {
	idx := make([]uint32, 0, len(entries))
	for _, e := range entries {
		idx = append(idx, e.Index)
	}
	return idx
}
