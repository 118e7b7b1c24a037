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

	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/handle/types"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/profile"
	log "github.com/sirupsen/logrus"
)

var payloadReadFailures = expvar.NewMap("handle.payload.read.failures")

// errNullObject is reported when the entry has a reader but no object pointer.
var errNullObject = errors.New("null object pointer")

// ObjectReader materializes the typed object an entry points to.
type ObjectReader interface {
	// CanDecode determines if the reader understands objects of the given type.
	CanDecode(t types.Type) bool
	// Decode reads the object referenced by the entry head pointer.
	Decode(e *types.Entry, as mem.AddressSpace) (types.Object, error)
}

// Readers dispatches object decoding by type tag.
type Readers []ObjectReader

// NewReaders returns the object readers for all supported object types.
func NewReaders(prof *profile.Profile) Readers {
	return Readers{
		NewEventHookReader(prof),
		NewHookReader(prof),
		NewTimerReader(prof),
	}
}

// For returns the reader for the given type or nil if no reader is registered.
func (r Readers) For(t types.Type) ObjectReader {
	for _, rd := range r {
		if rd.CanDecode(t) {
			return rd
		}
	}
	return nil
}

// Resolve populates the typed object of the entry. Read failures are
// recorded in the entry and never prevent the entry from being reported.
func (r Readers) Resolve(e *types.Entry, as mem.AddressSpace) {
	rd := r.For(e.Type)
	if rd == nil {
		return
	}
	if e.Head.IsZero() {
		e.ObjectErr = &PayloadError{Type: e.Type, Addr: e.Head, Err: errNullObject}
		return
	}
	obj, err := rd.Decode(e, as)
	if err != nil {
		payloadReadFailures.Add(e.Type.String(), 1)
		log.WithField("slot", e.Index).Debugf("unable to read %s object at 0x%s: %v", e.Type, e.Head, err)
		e.ObjectErr = &PayloadError{Type: e.Type, Addr: e.Head, Err: err}
		return
	}
	e.Object = obj
}

// constant pairs the raw value with its symbolic name from the given profile enumeration.
func constant(prof *profile.Profile, enum string, v uint32) types.Constant {
	name, _ := prof.Enum(enum).Name(v)
	return types.Constant{Value: v, Name: name}
}

// EventHookReader decodes tagEVENTHOOK objects.
type EventHookReader struct {
	prof *profile.Profile
}

// NewEventHookReader creates a new event hook reader.
func NewEventHookReader(prof *profile.Profile) *EventHookReader {
	return &EventHookReader{prof: prof}
}

func (r *EventHookReader) CanDecode(t types.Type) bool { return t == types.TypeWinEventHook }

func (r *EventHookReader) Decode(e *types.Entry, as mem.AddressSpace) (types.Object, error) {
	rec, err := r.prof.ReadStruct(as, "tagEVENTHOOK", e.Head)
	if err != nil {
		return nil, err
	}
	hook := &types.EventHook{Addr: e.Head}
	var eventMin, eventMax uint32
	var ihmod uint32
	for _, f := range []struct {
		name string
		v    *uint32
	}{
		{"eventMin", &eventMin},
		{"eventMax", &eventMax},
		{"dwFlags", &hook.Flags},
		{"idProcess", &hook.ProcessID},
		{"idThread", &hook.ThreadID},
		{"ihmod", &ihmod},
	} {
		if *f.v, err = rec.Uint32(f.name); err != nil {
			return nil, err
		}
	}
	if hook.OffPfn, err = rec.Pointer("offPfn"); err != nil {
		return nil, err
	}
	if r.prof.Has("tagEVENTHOOK", "phkNext") {
		hook.Next, _ = rec.Pointer("phkNext")
	}
	hook.EventMin = constant(r.prof, "EVENT_ID", eventMin)
	hook.EventMax = constant(r.prof, "EVENT_ID", eventMax)
	hook.Ihmod = int32(ihmod)
	return hook, nil
}

// HookReader decodes tagHOOK message hook objects.
type HookReader struct {
	prof *profile.Profile
}

// NewHookReader creates a new message hook reader.
func NewHookReader(prof *profile.Profile) *HookReader {
	return &HookReader{prof: prof}
}

func (r *HookReader) CanDecode(t types.Type) bool { return t == types.TypeHook }

func (r *HookReader) Decode(e *types.Entry, as mem.AddressSpace) (types.Object, error) {
	rec, err := r.prof.ReadStruct(as, "tagHOOK", e.Head)
	if err != nil {
		return nil, err
	}
	hook := &types.Hook{Addr: e.Head}
	id, err := rec.Uint32("iHook")
	if err != nil {
		return nil, err
	}
	hook.HookID = constant(r.prof, "HOOK_ID", id)
	if hook.OffPfn, err = rec.Pointer("offPfn"); err != nil {
		return nil, err
	}
	if hook.Flags, err = rec.Uint32("flags"); err != nil {
		return nil, err
	}
	ihmod, err := rec.Uint32("ihmod")
	if err != nil {
		return nil, err
	}
	hook.Ihmod = int32(ihmod)
	if hook.ThreadHooked, err = rec.Pointer("ptiHooked"); err != nil {
		return nil, err
	}
	if r.prof.Has("tagHOOK", "rpdesk") {
		hook.Desktop, _ = rec.Pointer("rpdesk")
	}
	if r.prof.Has("tagHOOK", "phkNext") {
		hook.Next, _ = rec.Pointer("phkNext")
	}
	return hook, nil
}

// TimerReader decodes tagTIMER objects.
type TimerReader struct {
	prof *profile.Profile
}

// NewTimerReader creates a new timer reader.
func NewTimerReader(prof *profile.Profile) *TimerReader {
	return &TimerReader{prof: prof}
}

func (r *TimerReader) CanDecode(t types.Type) bool { return t == types.TypeTimer }

func (r *TimerReader) Decode(e *types.Entry, as mem.AddressSpace) (types.Object, error) {
	rec, err := r.prof.ReadStruct(as, "tagTIMER", e.Head)
	if err != nil {
		return nil, err
	}
	timer := &types.Timer{Addr: e.Head}
	if timer.ID, err = rec.Uint("nID"); err != nil {
		return nil, err
	}
	if timer.Countdown, err = rec.Uint32("cmsCountdown"); err != nil {
		return nil, err
	}
	if timer.Rate, err = rec.Uint32("cmsRate"); err != nil {
		return nil, err
	}
	if timer.Flags, err = rec.Uint32("flags"); err != nil {
		return nil, err
	}
	if timer.Pfn, err = rec.Pointer("pfn"); err != nil {
		return nil, err
	}
	timer.Window, _ = rec.Pointer("spwnd")
	timer.Thread, _ = rec.Pointer("pti")
	return timer, nil
}
