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

package va

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	var tests = []struct {
		addr     Address
		delta    uint64
		ptrSize  int
		expected Address
	}{
		{0, 0x1000, 8, 0},
		{0x1a0000, 0, 8, 0x1a0000},
		{0x1a0000, 0xfffff90000000000, 8, 0xfffff900001a0000},
		{0xfffff900c0600000, 0xfffff90000000000, 8, 0xfffff900c0600000},
		{0x00410000, 0xbd000000, 4, 0xbd410000},
		{0xfe800000, 0xbd000000, 4, 0xfe800000},
	}

	for _, tt := range tests {
		t.Run(tt.addr.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.addr.Normalize(tt.delta, tt.ptrSize))
		})
	}
}

func TestInUserRange(t *testing.T) {
	assert.True(t, Address(0x7ffe0000).InUserRange(4))
	assert.False(t, Address(0x80000000).InUserRange(4))
	assert.True(t, Address(0x7fffffeffff).InUserRange(8))
	assert.False(t, Address(0xfffff80002a00000).InUserRange(8))
	assert.True(t, Address(0xfffff80002a00000).InSystemRange())
}

func TestAddressJSON(t *testing.T) {
	b, err := json.Marshal(Address(0xfffff97fff000000))
	require.NoError(t, err)
	assert.Equal(t, `"0xfffff97fff000000"`, string(b))

	var a Address
	require.NoError(t, json.Unmarshal(b, &a))
	assert.Equal(t, Address(0xfffff97fff000000), a)
	require.NoError(t, json.Unmarshal([]byte("4096"), &a))
	assert.Equal(t, Address(0x1000), a)
	require.Error(t, json.Unmarshal([]byte(`"zz"`), &a))
}
