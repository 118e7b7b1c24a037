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

package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rabbitstack/usertable/pkg/handle/types"
)

const separator = "**************************************************"

// banner describes the handle table of the current session.
func (c *Console) banner() []byte {
	buf := c.pool.Get()
	defer c.pool.Put(buf)
	buf.WriteString(separator + "\n")
	fmt.Fprintf(buf, "SharedInfo: 0x%s, SessionId: %d, Shared delta: %d\n", c.si.Addr, c.sess.ID, c.si.SharedDelta)
	fmt.Fprintf(buf, "aheList: 0x%s, Table size: 0x%x, Entry size: 0x%x\n\n", c.si.HandleTable, c.si.TableSize, c.si.EntrySize)
	return append([]byte(nil), buf.B...)
}

const handlesRow = "%-18s %-12s %-20s %-8s %-8s %-8s\n"

func textHandlesHeader() []byte {
	return []byte(fmt.Sprintf(handlesRow, "Object(V)", "Handle", "bType", "Flags", "Thread", "Process") +
		fmt.Sprintf(handlesRow, strings.Repeat("-", 18), strings.Repeat("-", 12), strings.Repeat("-", 20),
			strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 8)))
}

// id renders the owner identifier or a dash if it couldn't be resolved.
func id(ok bool, v uint64) string {
	if !ok {
		return "-"
	}
	return strconv.FormatUint(v, 10)
}

func hex(v uint64) string { return "0x" + strconv.FormatUint(v, 16) }

// handleValue renders the derived handle value. A trailing asterisk marks
// entries whose object header carries a different handle.
func handleValue(e *types.Entry) string {
	if e.HeadMismatch() {
		return hex(uint64(e.Handle)) + "*"
	}
	return hex(uint64(e.Handle))
}

func constant(c types.Constant) string {
	return strings.TrimSpace(fmt.Sprintf("%#x %s", c.Value, c.Name))
}

// text renders the entry in the plain text form of the report.
func (c *Console) text(e *types.Entry) []byte {
	buf := c.pool.Get()
	defer c.pool.Put(buf)

	if c.report == Handles {
		fmt.Fprintf(buf, handlesRow, hex(e.Head.Uint64()), handleValue(e), e.Type, strconv.Itoa(int(e.Flags)),
			id(e.HasTID, e.TID), id(e.HasPID, e.PID))
		return append([]byte(nil), buf.B...)
	}

	fmt.Fprintf(buf, "Handle: 0x%x, Object: 0x%s, Session: %d", e.Handle, e.Head, c.sess.ID)
	if e.HeadMismatch() {
		fmt.Fprintf(buf, ", Head: 0x%x (mismatch)", *e.HeadHandle)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(buf, "Type: %s, Flags: %d, Thread: %s, Process: %s\n", e.Type, e.Flags, id(e.HasTID, e.TID), id(e.HasPID, e.PID))

	switch obj := e.Object.(type) {
	case *types.EventHook:
		fmt.Fprintf(buf, "eventMin: %s\n", constant(obj.EventMin))
		fmt.Fprintf(buf, "eventMax: %s\n", constant(obj.EventMax))
		fmt.Fprintf(buf, "Flags: %d, offPfn: 0x%s, idProcess: %d, idThread: %d\n", obj.Flags, obj.OffPfn, obj.ProcessID, obj.ThreadID)
		fmt.Fprintf(buf, "ihmod: %d\n", obj.Ihmod)
	case *types.Hook:
		fmt.Fprintf(buf, "Hook: %s, Global: %t\n", constant(obj.HookID), obj.IsGlobal())
		fmt.Fprintf(buf, "Flags: %s, offPfn: 0x%s, ihmod: %d, ptiHooked: 0x%s\n", obj.FlagNames(), obj.OffPfn, obj.Ihmod, obj.ThreadHooked)
	case *types.Timer:
		fmt.Fprintf(buf, "ID: 0x%x, Rate(ms): %d, Countdown(ms): %d\n", obj.ID, obj.Rate, obj.Countdown)
		fmt.Fprintf(buf, "Flags: %s, pfn: 0x%s, Window: 0x%s\n", obj.FlagNames(), obj.Pfn, obj.Window)
	default:
		if e.ObjectErr != nil {
			fmt.Fprintf(buf, "Object unavailable: %v\n", e.ObjectErr)
		}
	}
	buf.WriteByte('\n')
	return append([]byte(nil), buf.B...)
}
