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

var profileSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"definitions": {
		"field": {
			"type": "object",
			"properties": {
				"offset":	{"type": "integer", "minimum": 0},
				"type":		{"type": "string", "enum": ["pointer", "uint8", "uint16", "uint32", "uint64", "char"]},
				"len":		{"type": "integer", "minimum": 1}
			},
			"required": ["offset", "type"],
			"if": {"properties": {"type": {"const": "char"}}},
			"then": {"required": ["len"]},
			"additionalProperties": false
		},
		"struct": {
			"type": "object",
			"properties": {
				"size":		{"type": "integer", "minimum": 0},
				"fields":	{"type": "object", "additionalProperties": {"$ref": "#/definitions/field"}}
			},
			"required": ["fields"],
			"additionalProperties": false
		},
		"enum": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"value":	{"type": "integer", "minimum": 0, "maximum": 4294967295},
					"name":		{"type": "string", "minLength": 1}
				},
				"required": ["value", "name"],
				"additionalProperties": false
			}
		}
	},

	"type": "object",
	"properties": {
		"name":		{"type": "string", "minLength": 1},
		"metadata": {
			"type": "object",
			"properties": {
				"os":			{"type": "string", "minLength": 1},
				"major":		{"type": "integer", "minimum": 0},
				"minor":		{"type": "integer", "minimum": 0},
				"build":		{"type": "integer", "minimum": 0},
				"memory_model":	{"type": "string", "enum": ["32bit", "64bit"]}
			},
			"required": ["os", "major", "minor", "memory_model"],
			"additionalProperties": false
		},
		"structs":	{"type": "object", "additionalProperties": {"$ref": "#/definitions/struct"}},
		"enums":	{"type": "object", "additionalProperties": {"$ref": "#/definitions/enum"}}
	},
	"required": ["metadata"],
	"additionalProperties": false
}
`
