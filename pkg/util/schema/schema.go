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

// Package schema validates decoded YAML/JSON documents against JSON schemas.
package schema

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// Validate checks the document against the JSON schema. It returns whether
// the document is valid along with one error per violation, each prefixed
// with the path of the offending field.
func Validate(schema string, doc interface{}) (bool, []error) {
	normalized, err := stringKeys(doc, "")
	if err != nil {
		return false, []error{errors.Wrap(err, "unable to normalize document keys")}
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(normalized))
	if err != nil {
		return false, []error{errors.Wrap(err, "unable to apply schema")}
	}
	var errs []error
	for _, violation := range res.Errors() {
		errs = append(errs, errors.New(violation.String()))
	}
	return res.Valid(), errs
}

// stringKeys rewrites the maps decoded by YAML, which may carry
// arbitrary key types, into the string keyed maps the JSON schema
// loader expects.
func stringKeys(v interface{}, path string) (interface{}, error) {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			conv, err := stringKeys(child, field(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			key, ok := k.(string)
			if !ok {
				return nil, keyError(path, k)
			}
			conv, err := stringKeys(child, field(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			conv, err := stringKeys(child, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	default:
		return v, nil
	}
}

func field(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func keyError(path string, key interface{}) error {
	if path == "" {
		return fmt.Errorf("non-string key %#v at document root", key)
	}
	return fmt.Errorf("non-string key %#v under %s", key, path)
}
