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

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"size": {"type": "integer", "minimum": 0}
	},
	"additionalProperties": false
}
`

func TestValidate(t *testing.T) {
	valid, errs := Validate(testSchema, map[string]interface{}{"name": "tagEVENTHOOK", "size": 0x58})
	require.True(t, valid)
	assert.Empty(t, errs)

	valid, errs = Validate(testSchema, map[interface{}]interface{}{"name": "", "sizes": 1})
	require.False(t, valid)
	assert.Len(t, errs, 2)

	valid, errs = Validate(testSchema, map[interface{}]interface{}{1: "x"})
	require.False(t, valid)
	assert.Len(t, errs, 1)
}

func TestValidateNonStringKeyPath(t *testing.T) {
	doc := map[interface{}]interface{}{
		"name": []interface{}{map[interface{}]interface{}{7: "x"}},
	}
	valid, errs := Validate(testSchema, doc)
	require.False(t, valid)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "non-string key 7 under name[0]")
}
