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

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/usertable/pkg/handle/types"
)

func (c *Console) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	switch c.report {
	case Handles:
		t.AppendHeader(table.Row{"Object(V)", "Handle", "bType", "Flags", "Thread", "Process", "Name"})
	case EventHooks:
		t.SetTitle(fmt.Sprintf("Session %d", c.sess.ID))
		t.AppendHeader(table.Row{"Handle", "Object", "Thread", "Process", "eventMin", "eventMax", "Flags", "offPfn", "ihmod"})
	case MessageHooks:
		t.SetTitle(fmt.Sprintf("Session %d", c.sess.ID))
		t.AppendHeader(table.Row{"Handle", "Object", "Thread", "Process", "Hook", "Flags", "offPfn", "ihmod", "ptiHooked"})
	case Timers:
		t.SetTitle(fmt.Sprintf("Session %d", c.sess.ID))
		t.AppendHeader(table.Row{"Handle", "Object", "Process", "ID", "Rate(ms)", "Countdown(ms)", "Flags", "pfn"})
	}
	return t
}

// unavailable fills the object columns of entries whose object couldn't be read.
func unavailable(row table.Row, n int) table.Row {
	for i := 0; i < n; i++ {
		row = append(row, "?")
	}
	return row
}

func (c *Console) row(e *types.Entry) table.Row {
	handle, object := handleValue(e), hex(e.Head.Uint64())
	tid, pid := id(e.HasTID, e.TID), id(e.HasPID, e.PID)

	switch c.report {
	case EventHooks:
		row := table.Row{handle, object, tid, pid}
		obj, ok := e.Object.(*types.EventHook)
		if !ok {
			return unavailable(row, 5)
		}
		return append(row, constant(obj.EventMin), constant(obj.EventMax), obj.Flags, hex(obj.OffPfn.Uint64()), obj.Ihmod)
	case MessageHooks:
		row := table.Row{handle, object, tid, pid}
		obj, ok := e.Object.(*types.Hook)
		if !ok {
			return unavailable(row, 5)
		}
		return append(row, constant(obj.HookID), obj.FlagNames(), hex(obj.OffPfn.Uint64()), obj.Ihmod, hex(obj.ThreadHooked.Uint64()))
	case Timers:
		row := table.Row{handle, object, pid}
		obj, ok := e.Object.(*types.Timer)
		if !ok {
			return unavailable(row, 5)
		}
		return append(row, hex(obj.ID), obj.Rate, obj.Countdown, obj.FlagNames(), hex(obj.Pfn.Uint64()))
	default:
		return table.Row{object, handle, e.Type.String(), strconv.Itoa(int(e.Flags)), tid, pid, e.ProcessName}
	}
}
