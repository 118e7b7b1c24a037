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

package types

import (
	"fmt"

	"github.com/rabbitstack/usertable/pkg/util/va"
)

// Object is the typed kernel object referenced by the handle entry.
type Object interface {
	// Type returns the object type tag the object was decoded for.
	Type() Type
	// Address returns the virtual address of the object.
	Address() va.Address
}

// Constant is a numeric value along with its symbolic name, if known.
type Constant struct {
	Value uint32 `json:"value"`
	Name  string `json:"name,omitempty"`
}

// String returns the symbolic name or the hexadecimal value.
func (c Constant) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("0x%x", c.Value)
}

// EventHook is the tagEVENTHOOK object registered by SetWinEventHook.
type EventHook struct {
	Addr va.Address `json:"address"`
	// EventMin is the lowest event id the hook receives.
	EventMin Constant `json:"event_min"`
	// EventMax is the highest event id the hook receives.
	EventMax Constant `json:"event_max"`
	// Flags contains WINEVENT_* bits.
	Flags uint32 `json:"flags"`
	// OffPfn is the callback offset relative to the module base.
	OffPfn va.Address `json:"off_pfn"`
	// ProcessID and ThreadID are the ids the hook was registered to observe.
	ProcessID uint32 `json:"id_process"`
	ThreadID  uint32 `json:"id_thread"`
	// Ihmod is the index of the module in the atom table, or -1 for no module.
	Ihmod int32      `json:"ihmod"`
	Next  va.Address `json:"next"`
}

func (e *EventHook) Type() Type          { return TypeWinEventHook }
func (e *EventHook) Address() va.Address { return e.Addr }

var hookFlagNames = []flagName{
	{0x1, "HF_GLOBAL"},
	{0x2, "HF_ANSI"},
	{0x4, "HF_NEEDHC_SKIP"},
	{0x8, "HF_HUNG"},
	{0x10, "HF_HOOKFAULTED"},
	{0x20, "HF_NOPLAYBACKDELAY"},
	{0x80, "HF_DESTROYED"},
	{0x100, "HF_INCHECKWHF"},
	{0x200, "HF_FREED"},
}

// Hook is the tagHOOK object registered by SetWindowsHookEx.
type Hook struct {
	Addr va.Address `json:"address"`
	// HookID is the WH_* hook type.
	HookID Constant   `json:"hook_id"`
	OffPfn va.Address `json:"off_pfn"`
	// Flags contains HF_* bits.
	Flags uint32 `json:"flags"`
	Ihmod int32  `json:"ihmod"`
	// ThreadHooked is the tagTHREADINFO of the hooked thread or null for global hooks.
	ThreadHooked va.Address `json:"pti_hooked"`
	Desktop      va.Address `json:"desktop"`
	Next         va.Address `json:"next"`
}

func (h *Hook) Type() Type          { return TypeHook }
func (h *Hook) Address() va.Address { return h.Addr }

// FlagNames returns the HF_* flag names.
func (h *Hook) FlagNames() string { return formatFlags(h.Flags, hookFlagNames) }

// IsGlobal determines if the hook applies to all threads on the desktop.
func (h *Hook) IsGlobal() bool { return h.Flags&0x1 != 0 }

var timerFlagNames = []flagName{
	{0x1, "TMRF_READY"},
	{0x2, "TMRF_SYSTEM"},
	{0x4, "TMRF_RIT"},
	{0x8, "TMRF_INIT"},
	{0x10, "TMRF_ONESHOT"},
	{0x20, "TMRF_WAITING"},
	{0x40, "TMRF_TIFROMWND"},
}

// Timer is the tagTIMER object created by SetTimer.
type Timer struct {
	Addr va.Address `json:"address"`
	// ID is the timer identifier.
	ID uint64 `json:"id"`
	// Countdown is the number of milliseconds left until the timer fires.
	Countdown uint32 `json:"countdown"`
	// Rate is the timer period in milliseconds.
	Rate   uint32     `json:"rate"`
	Flags  uint32     `json:"flags"`
	Pfn    va.Address `json:"pfn"`
	Window va.Address `json:"window"`
	Thread va.Address `json:"pti"`
}

func (t *Timer) Type() Type          { return TypeTimer }
func (t *Timer) Address() va.Address { return t.Addr }

// FlagNames returns the TMRF_* flag names.
func (t *Timer) FlagNames() string { return formatFlags(t.Flags, timerFlagNames) }
