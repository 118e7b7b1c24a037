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

package version

import (
	"bytes"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	v, err := New("1.2.3", "8c9f03a", "2024-01-02")
	require.NoError(t, err)
	assert.False(t, v.IsDev())
	assert.Equal(t, "1.2.3", v.String())
	assert.Equal(t, "usertable/1.2.3", v.ProductToken())

	dev, err := New("", "", "")
	require.NoError(t, err)
	assert.True(t, dev.IsDev())
	assert.Equal(t, "dev", dev.String())

	_, err = New("one.two", "", "")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	v, err := New("0.4.0", "abc", "today")
	require.NoError(t, err)

	var b bytes.Buffer
	v.Render(&b, table.Row{"Layouts", "Windows below 6.2"})

	out := b.String()
	assert.Contains(t, out, "0.4.0")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "Windows below 6.2")
}
