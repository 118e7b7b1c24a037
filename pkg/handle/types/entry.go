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

	"github.com/rabbitstack/usertable/pkg/util/va"
)

// Entry is the decoded USER handle table slot.
type Entry struct {
	// Index is the slot index inside the handle table.
	Index uint32
	// Addr is the virtual address of the slot.
	Addr va.Address
	// Head is the address of the object the slot references.
	Head va.Address
	// HeadHandle is the handle value stored in the object header. It is nil
	// when the head pointer is null or the header couldn't be read.
	HeadHandle *uint32
	// Handle is the handle value derived from the slot index and the uniqueness counter.
	Handle uint32
	// Uniq is the slot reuse counter.
	Uniq uint16
	// Owner is the raw owner pointer (tagTHREADINFO or tagPROCESSINFO).
	Owner va.Address
	// Type is the object type tag.
	Type Type
	// Flags contains HANDLEF_* bits.
	Flags Flags
	// Free indicates the slot is not allocated.
	Free bool
	// TID is the owning thread identifier. Only valid if HasTID is true.
	TID uint64
	// PID is the owning process identifier. Only valid if HasPID is true.
	PID    uint64
	HasTID bool
	HasPID bool
	// ProcessName is the image name of the owning process if it could be read.
	ProcessName string
	// Object is the typed object behind the head pointer when a reader exists for the type.
	Object Object
	// ObjectErr is set when the typed object couldn't be read.
	ObjectErr error
}

// String returns a string representation of the entry.
func (e *Entry) String() string {
	return fmt.Sprintf("Index: %d Handle: 0x%x, Type: %s, Object: 0x%s, Flags: %d, TID: %d, PID: %d",
		e.Index, e.Handle, e.Type, e.Head, e.Flags, e.TID, e.PID)
}

// HeadMismatch reports whether the handle stored in the object header
// disagrees with the handle derived from the slot. A mismatch usually
// means the slot was reused or the memory is inconsistent.
func (e *Entry) HeadMismatch() bool {
	return e.HeadHandle != nil && *e.HeadHandle != e.Handle
}

// MarshalJSON encodes the entry along with optional owner identifiers.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type entry struct {
		Index       uint32     `json:"index"`
		Addr        va.Address `json:"entry"`
		Head        va.Address `json:"object"`
		Handle      string     `json:"handle"`
		HeadHandle  *string    `json:"head_handle"`
		Uniq        uint16     `json:"uniq"`
		Owner       va.Address `json:"owner"`
		Type        Type       `json:"type"`
		Flags       Flags      `json:"flags"`
		Free        bool       `json:"free"`
		TID         *uint64    `json:"tid"`
		PID         *uint64    `json:"pid"`
		ProcessName string     `json:"process_name,omitempty"`
		Object      Object     `json:"payload,omitempty"`
		ObjectErr   string     `json:"payload_error,omitempty"`
	}
	out := entry{
		Index:       e.Index,
		Addr:        e.Addr,
		Head:        e.Head,
		Handle:      fmt.Sprintf("0x%x", e.Handle),
		Uniq:        e.Uniq,
		Owner:       e.Owner,
		Type:        e.Type,
		Flags:       e.Flags,
		Free:        e.Free,
		ProcessName: e.ProcessName,
		Object:      e.Object,
	}
	if e.HeadHandle != nil {
		h := fmt.Sprintf("0x%x", *e.HeadHandle)
		out.HeadHandle = &h
	}
	if e.HasTID {
		out.TID = &e.TID
	}
	if e.HasPID {
		out.PID = &e.PID
	}
	if e.ObjectErr != nil {
		out.ObjectErr = e.ObjectErr.Error()
	}
	return json.Marshal(out)
}
