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

package config

var configSchema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",

	"type": "object",
	"properties": {
		"config-file": 		{"type": "string"},
		"image":			{"type": "string"},
		"profile": {
			"type": "object",
			"properties": {
				"name":		{"type": "string"},
				"paths":	{"type": "array", "items": {"type": "string", "minLength": 1}}
			},
			"additionalProperties": false
		},
		"userhandles": {
			"type": "object",
			"properties": {
				"pid":			{"type": "integer", "minimum": -1},
				"type":			{"type": "string"},
				"free":			{"type": "boolean"},
				"deref-free":	{"type": "boolean"}
			},
			"additionalProperties": false
		},
		"output": {
			"type": "object",
			"properties": {
				"format":	{"type": "string", "enum": ["table", "text", "json", "template"]},
				"template":	{"type": "string"}
			},
			"if": {
				"properties": {"format": { "const": "template" }}
			},
			"then": {
				"required": ["template"],
				"properties": {"template": {"minLength": 1}}
			},
			"additionalProperties": false
		},
		"logging": {
			"type": "object",
			"properties": {
				"level": 			{"type": "string", "enum": ["panic", "fatal", "error", "warn", "warning", "info", "debug", "trace"]},
				"max-age":			{"type": "integer", "minimum": 0},
				"max-backups":		{"type": "integer", "minimum": 1},
				"max-size":			{"type": "integer", "minimum": 1},
				"formatter":		{"type": "string", "enum": ["json", "text"]},
				"path":				{"type": "string"},
				"log-stdout":		{"type": "boolean"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}
`
