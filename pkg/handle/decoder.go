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
	"expvar"

	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/profile"
	"github.com/rabbitstack/usertable/pkg/session"
	"github.com/rabbitstack/usertable/pkg/util/va"
	log "github.com/sirupsen/logrus"
)

var (
	ownerResolveFailures = expvar.NewMap("handle.owner.resolve.failures")
	headReadFailures     = expvar.NewInt("handle.head.read.failures")
)

// Decoder converts raw handle table slots into entries.
type Decoder struct {
	as        mem.AddressSpace
	prof      *profile.Profile
	packing   Packing
	si        *session.SharedInfo
	derefFree bool
}

// NewDecoder creates the decoder for the handle table described by the shared info.
func NewDecoder(as mem.AddressSpace, prof *profile.Profile, packing Packing, si *session.SharedInfo, derefFree bool) *Decoder {
	return &Decoder{as: as, prof: prof, packing: packing, si: si, derefFree: derefFree}
}

// SlotAddr returns the address of the slot with the given index.
func (d *Decoder) SlotAddr(base va.Address, index uint32) va.Address {
	return base.Inc(uint64(index) * uint64(d.si.EntrySize))
}

// Decode reads the slot at the given index of the table that starts at base.
func (d *Decoder) Decode(base va.Address, index uint32) (*types.Entry, error) {
	addr := d.SlotAddr(base, index)
	rec, err := d.prof.ReadStruct(d.as, "_HANDLEENTRY", addr)
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}

	phead, err := rec.Pointer("phead")
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}
	owner, err := rec.Pointer("pOwner")
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}
	typ, err := rec.Uint("bType")
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}
	flags, err := rec.Uint("bFlags")
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}
	uniq, err := rec.Uint("wUniq")
	if err != nil {
		return nil, &SlotError{Index: index, Addr: addr, Err: err}
	}

	e := &types.Entry{
		Index:  index,
		Addr:   addr,
		Head:   d.si.Normalize(phead),
		Owner:  d.si.Normalize(owner),
		Type:   types.Type(typ),
		Flags:  types.Flags(flags),
		Uniq:   uint16(uniq),
		Handle: d.packing.Pack(index, uint16(uniq)),
	}
	e.Free = e.Type == types.TypeFree

	if e.Free && !d.derefFree {
		return e, nil
	}
	d.readHead(e)
	d.resolveOwner(e)

	return e, nil
}

// readHead reads the handle stored in the object header.
func (d *Decoder) readHead(e *types.Entry) {
	if e.Head.IsZero() {
		return
	}
	h, err := d.prof.ReadUint(d.as, "_HEAD", "h", e.Head)
	if err != nil {
		headReadFailures.Add(1)
		log.WithField("slot", e.Index).Debugf("unable to read object header at 0x%s: %v", e.Head, err)
		return
	}
	v := uint32(h)
	e.HeadHandle = &v
}

// resolveOwner resolves the thread and process that own the object. The owner
// pointer references either tagTHREADINFO or tagPROCESSINFO depending on the type.
func (d *Decoder) resolveOwner(e *types.Entry) {
	if e.Owner.IsZero() {
		return
	}
	switch {
	case e.Type.IsThreadOwned():
		d.resolveThreadOwner(e)
	case e.Type.IsProcessOwned():
		d.resolveProcess(e, e.Owner)
	case e.Free:
		// the type tag of a freed slot is gone. The stale owner counts
		// as a thread only if the chain leads to a process
		d.resolveThreadOwner(e)
		if !e.HasPID {
			e.TID, e.HasTID = 0, false
			d.resolveProcess(e, e.Owner)
		}
	}
}

func (d *Decoder) resolveThreadOwner(e *types.Entry) {
	if err := d.resolveThread(e); err != nil {
		ownerResolveFailures.Add("thread", 1)
		log.WithField("slot", e.Index).Debugf("unable to resolve owning thread: %v", err)
	}
	ppi, err := d.prof.ReadPointer(d.as, "tagTHREADINFO", "ppi", e.Owner)
	if err != nil {
		ownerResolveFailures.Add("process", 1)
		log.WithField("slot", e.Index).Debugf("unable to resolve owning process: %v", err)
		return
	}
	d.resolveProcess(e, ppi)
}

func (d *Decoder) resolveThread(e *types.Entry) error {
	ethread, err := d.prof.ReadPointer(d.as, "tagTHREADINFO", "pEThread", e.Owner)
	if err != nil || ethread.IsZero() {
		return err
	}
	tid, err := d.prof.ReadUint(d.as, "_ETHREAD", "Cid.UniqueThread", ethread)
	if err != nil {
		return err
	}
	e.TID, e.HasTID = tid, true
	return nil
}

func (d *Decoder) resolveProcess(e *types.Entry, ppi va.Address) {
	if ppi.IsZero() {
		return
	}
	eprocess, err := d.prof.ReadPointer(d.as, "tagPROCESSINFO", "Process", ppi)
	if err != nil || eprocess.IsZero() {
		if err != nil {
			ownerResolveFailures.Add("process", 1)
			log.WithField("slot", e.Index).Debugf("unable to resolve owning process: %v", err)
		}
		return
	}
	pid, err := d.prof.ReadUint(d.as, "_EPROCESS", "UniqueProcessId", eprocess)
	if err != nil {
		ownerResolveFailures.Add("process", 1)
		log.WithField("slot", e.Index).Debugf("unable to read process id: %v", err)
		return
	}
	e.PID, e.HasPID = pid, true
	if d.prof.Has("_EPROCESS", "ImageFileName") {
		e.ProcessName, _ = d.prof.ReadString(d.as, "_EPROCESS", "ImageFileName", eprocess)
	}
}
