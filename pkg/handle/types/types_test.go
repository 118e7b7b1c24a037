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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	assert.Equal(t, "TYPE_WINEVENTHOOK", TypeWinEventHook.String())
	assert.Equal(t, "TYPE_FREE", TypeFree.String())
	assert.Equal(t, "Unknown(0x2a)", Type(42).String())
	assert.False(t, Type(42).IsKnown())
	assert.Len(t, Names(), 24)
}

func TestOwnership(t *testing.T) {
	assert.True(t, TypeWindow.IsThreadOwned())
	assert.True(t, TypeWinEventHook.IsThreadOwned())
	assert.False(t, TypeWinEventHook.IsProcessOwned())
	assert.True(t, TypeTimer.IsProcessOwned())
	assert.False(t, TypeMonitor.IsThreadOwned())
	assert.False(t, TypeMonitor.IsProcessOwned())
	assert.False(t, Type(0xfe).IsThreadOwned())
	assert.False(t, Type(0xfe).IsProcessOwned())
}

func TestParseType(t *testing.T) {
	var tests = []struct {
		s   string
		typ Type
		err bool
	}{
		{"TYPE_WINEVENTHOOK", TypeWinEventHook, false},
		{"type_window", TypeWindow, false},
		{"timer", TypeTimer, false},
		{" TYPE_HOOK ", TypeHook, false},
		{"TYPE_WINEVNTHOOK", 0, true},
		{"TYPE_FROB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			typ, err := ParseType(tt.s)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ)
		})
	}

	_, err := ParseType("TYPE_WINEVNTHOOK")
	assert.Contains(t, err.Error(), "TYPE_WINEVENTHOOK")
}

func TestFlags(t *testing.T) {
	assert.Equal(t, "", Flags(0).String())
	assert.Equal(t, "HANDLEF_DESTROY|HANDLEF_GRANTED", (Destroy | Granted).String())
	assert.Equal(t, "HANDLEF_MARKED_OK|0x80", Flags(0x90).String())

	h := &Hook{Flags: 0x3}
	assert.Equal(t, "HF_GLOBAL|HF_ANSI", h.FlagNames())
	assert.True(t, h.IsGlobal())
	tm := &Timer{Flags: 0x11}
	assert.Equal(t, "TMRF_READY|TMRF_ONESHOT", tm.FlagNames())
}

func TestEntryMarshalJSON(t *testing.T) {
	hh := uint32(0x1001a)
	e := &Entry{
		Index:      0x1a,
		Addr:       0xfffff900c0600270,
		Head:       0xfffff900c0680a50,
		HeadHandle: &hh,
		Handle:     0x1001a,
		Uniq:       1,
		Type:       TypeWinEventHook,
		PID:        1356,
		HasPID:     true,
		Object: &EventHook{
			Addr:     0xfffff900c0680a50,
			EventMin: Constant{Value: 0x1, Name: "EVENT_MIN"},
			EventMax: Constant{Value: 0x7fffffff, Name: "EVENT_MAX"},
			Ihmod:    -1,
		},
		ObjectErr: errors.New("unmapped"),
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "0x1001a", m["handle"])
	assert.Equal(t, "0x1001a", m["head_handle"])
	assert.Equal(t, "0xfffff900c0680a50", m["object"])
	assert.Equal(t, "TYPE_WINEVENTHOOK", m["type"])
	assert.Nil(t, m["tid"])
	assert.Equal(t, float64(1356), m["pid"])
	assert.Equal(t, "unmapped", m["payload_error"])
	payload := m["payload"].(map[string]interface{})
	assert.Equal(t, "EVENT_MIN", payload["event_min"].(map[string]interface{})["name"])
	assert.False(t, e.HeadMismatch())
}
