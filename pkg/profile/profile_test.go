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

package profile

import (
	"os"
	"path/filepath"
	"testing"

	uerrors "github.com/rabbitstack/usertable/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/util/va"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"Win7SP1x64", "Win7SP1x86", "Win8SP0x64"}, r.Names())

	p, err := r.Get("Win7SP1x64")
	require.NoError(t, err)
	assert.Equal(t, 8, p.PointerSize())
	assert.Equal(t, 6, p.Metadata.Major)
	assert.Equal(t, 1, p.Metadata.Minor)

	size, err := p.Size("_HANDLEENTRY")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x18), size)

	off, err := p.Offset("_HANDLEENTRY", "wUniq")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12), off)

	_, err = p.Offset("_HANDLEENTRY", "cLockObj")
	require.Error(t, err)
	assert.True(t, uerrors.IsFieldNotFound(err))

	assert.True(t, p.Has("tagSHAREDINFO", "HeEntrySize"))
	assert.False(t, p.Has("tagDESKTOP", "pDeskInfo"))

	name, ok := p.Enum("EVENT_ID").Name(0x1)
	require.True(t, ok)
	assert.Equal(t, "EVENT_MIN", name)
	name, ok = p.Enum("HOOK_ID").Name(0xffffffff)
	require.True(t, ok)
	assert.Equal(t, "WH_MSGFILTER", name)
	_, ok = p.Enum("WM_MESSAGE").Name(0x1)
	assert.False(t, ok)

	x86, err := r.Get("Win7SP1x86")
	require.NoError(t, err)
	assert.Equal(t, 4, x86.PointerSize())
}

func TestGetUnknownProfile(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	_, err = r.Get("Win7SP1x46")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Win7SP1x64")
}

func TestParseInvalidProfile(t *testing.T) {
	var tests = []struct {
		name string
		doc  string
	}{
		{"missing metadata", `name: broken`},
		{"bad memory model", `
metadata: {os: windows, major: 6, minor: 1, memory_model: 16bit}
`},
		{"char without len", `
metadata: {os: windows, major: 6, minor: 1, memory_model: 64bit}
structs:
  _EPROCESS:
    size: 0x10
    fields:
      ImageFileName: {offset: 0x0, type: char}
`},
		{"unknown field type", `
metadata: {os: windows, major: 6, minor: 1, memory_model: 64bit}
structs:
  _HEAD:
    fields:
      h: {offset: 0x0, type: double}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	doc := `
metadata: {os: windows, major: 6, minor: 1, build: 7600, memory_model: 64bit}
structs:
  _HEAD:
    size: 0x10
    fields:
      h: {offset: 0x0, type: pointer}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Win7SP0x64.yml"), []byte(doc), 0o644))

	r, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.LoadPaths([]string{dir}))

	p, err := r.Get("Win7SP0x64")
	require.NoError(t, err)
	assert.Equal(t, 7600, p.Metadata.Build)
	// shared constant tables are merged into profiles loaded from disk
	_, ok := p.Enum("EVENT_ID").Name(0x7fffffff)
	assert.True(t, ok)

	require.Error(t, r.LoadPaths([]string{filepath.Join(dir, "missing.yml")}))
}

func TestReadStruct(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	p, err := r.Get("Win7SP1x64")
	require.NoError(t, err)

	eproc := make([]byte, 0x4d0)
	eproc[0x180] = 0x4c
	eproc[0x181] = 0x05
	copy(eproc[0x2e0:], "explorer.exe")
	as := mem.NewSparse().MustMap(0xfffffa8001a2c060, eproc)

	rec, err := p.ReadStruct(as, "_EPROCESS", 0xfffffa8001a2c060)
	require.NoError(t, err)
	pid, err := rec.Uint("UniqueProcessId")
	require.NoError(t, err)
	assert.Equal(t, uint64(1356), pid)
	name, err := rec.String("ImageFileName")
	require.NoError(t, err)
	assert.Equal(t, "explorer.exe", name)
	_, err = rec.String("UniqueProcessId")
	require.Error(t, err)
	_, err = rec.Uint("ImageFileName")
	require.Error(t, err)

	pid, err = p.ReadUint(as, "_EPROCESS", "UniqueProcessId", 0xfffffa8001a2c060)
	require.NoError(t, err)
	assert.Equal(t, uint64(1356), pid)

	_, err = p.ReadStruct(as, "_EPROCESS", va.Address(0xfffffa8001a2c070))
	require.Error(t, err)
	assert.True(t, mem.IsUnmapped(err))
}
