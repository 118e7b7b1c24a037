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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/util/suggest"
)

// Type is the USER object type tag stored in the handle table entry.
// Values outside the known enumeration are preserved and reported as unknown.
type Type uint8

const (
	TypeFree Type = iota
	TypeWindow
	TypeMenu
	TypeCursor
	TypeSetWindowPos
	TypeHook
	TypeClipData
	TypeCallProc
	TypeAccelTable
	TypeDdeAccess
	TypeDdeConv
	TypeDdeXact
	TypeMonitor
	TypeKbdLayout
	TypeKbdFile
	TypeWinEventHook
	TypeTimer
	TypeInputContext
	TypeHidData
	TypeDeviceInfo
	TypeTouchInputInfo
	TypeGestureInfoObj
	TypeCTypes
	TypeGeneric
)

// maxType is the highest tag of the known enumeration.
const maxType = TypeGeneric

var names = [...]string{
	TypeFree:           "TYPE_FREE",
	TypeWindow:         "TYPE_WINDOW",
	TypeMenu:           "TYPE_MENU",
	TypeCursor:         "TYPE_CURSOR",
	TypeSetWindowPos:   "TYPE_SETWINDOWPOS",
	TypeHook:           "TYPE_HOOK",
	TypeClipData:       "TYPE_CLIPDATA",
	TypeCallProc:       "TYPE_CALLPROC",
	TypeAccelTable:     "TYPE_ACCELTABLE",
	TypeDdeAccess:      "TYPE_DDEACCESS",
	TypeDdeConv:        "TYPE_DDECONV",
	TypeDdeXact:        "TYPE_DDEXACT",
	TypeMonitor:        "TYPE_MONITOR",
	TypeKbdLayout:      "TYPE_KBDLAYOUT",
	TypeKbdFile:        "TYPE_KBDFILE",
	TypeWinEventHook:   "TYPE_WINEVENTHOOK",
	TypeTimer:          "TYPE_TIMER",
	TypeInputContext:   "TYPE_INPUTCONTEXT",
	TypeHidData:        "TYPE_HIDDATA",
	TypeDeviceInfo:     "TYPE_DEVICEINFO",
	TypeTouchInputInfo: "TYPE_TOUCHINPUTINFO",
	TypeGestureInfoObj: "TYPE_GESTUREINFOOBJ",
	TypeCTypes:         "TYPE_CTYPES",
	TypeGeneric:        "TYPE_GENERIC",
}

var (
	// threadOwned contains the types whose owner pointer references a tagTHREADINFO
	threadOwned = bitset.New(uint(maxType) + 1)
	// processOwned contains the types whose owner pointer references a tagPROCESSINFO
	processOwned = bitset.New(uint(maxType) + 1)
)

func init() {
	for _, t := range []Type{TypeWindow, TypeSetWindowPos, TypeHook, TypeDdeAccess, TypeDdeConv, TypeDdeXact,
		TypeWinEventHook, TypeInputContext, TypeHidData, TypeTouchInputInfo, TypeGestureInfoObj} {
		threadOwned.Set(uint(t))
	}
	for _, t := range []Type{TypeMenu, TypeCursor, TypeTimer, TypeCallProc, TypeAccelTable} {
		processOwned.Set(uint(t))
	}
}

// IsKnown determines if the tag belongs to the known enumeration.
func (t Type) IsKnown() bool { return t <= maxType }

// IsThreadOwned determines if the entry owner is a thread.
func (t Type) IsThreadOwned() bool { return t.IsKnown() && threadOwned.Test(uint(t)) }

// IsProcessOwned determines if the entry owner is a process.
func (t Type) IsProcessOwned() bool { return t.IsKnown() && processOwned.Test(uint(t)) }

// String returns the type name.
func (t Type) String() string {
	if !t.IsKnown() {
		return fmt.Sprintf("Unknown(0x%x)", uint8(t))
	}
	return names[t]
}

// MarshalJSON encodes the type by its name.
func (t Type) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// Names returns all known type names in tag order.
func Names() []string {
	n := make([]string, len(names))
	copy(n, names[:])
	return n
}

// ParseType resolves the type from its name. The TYPE_ prefix is optional
// and the comparison is case-insensitive.
func ParseType(s string) (Type, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "TYPE_") {
		name = "TYPE_" + name
	}
	for i, n := range names {
		if n == name {
			return Type(i), nil
		}
	}
	if sug := suggest.Find(name, names[:], 3); len(sug) > 0 {
		return 0, errors.Errorf("unknown handle type %q. Did you mean %s?", s, strings.Join(sug, ", "))
	}
	return 0, errors.Errorf("unknown handle type %q", s)
}

// Flags is the bitmask of HANDLEF_* entry flags.
type Flags uint8

const (
	Destroy        Flags = 0x01
	InDestroy      Flags = 0x02
	InWaitForDeath Flags = 0x04
	FinalDestroy   Flags = 0x08
	MarkedOK       Flags = 0x10
	Granted        Flags = 0x20
)

var flagNames = []flagName{
	{uint32(Destroy), "HANDLEF_DESTROY"},
	{uint32(InDestroy), "HANDLEF_INDESTROY"},
	{uint32(InWaitForDeath), "HANDLEF_INWAITFORDEATH"},
	{uint32(FinalDestroy), "HANDLEF_FINALDESTROY"},
	{uint32(MarkedOK), "HANDLEF_MARKED_OK"},
	{uint32(Granted), "HANDLEF_GRANTED"},
}

// String returns the pipe-separated flag names.
func (f Flags) String() string { return formatFlags(uint32(f), flagNames) }

type flagName struct {
	bit  uint32
	name string
}

// formatFlags joins the names of all set bits. Bits without a name are
// rendered as a single hexadecimal remainder.
func formatFlags(v uint32, table []flagName) string {
	if v == 0 {
		return ""
	}
	var sb strings.Builder
	rest := v
	for _, f := range table {
		if v&f.bit == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(f.name)
		rest &^= f.bit
	}
	if rest != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(fmt.Sprintf("0x%x", rest))
	}
	return sb.String()
}
