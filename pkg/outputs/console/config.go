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
	"strings"

	"github.com/spf13/pflag"
)

const (
	frmt = "output.format"
	tmpl = "output.template"
)

// Format determines how decoded entries are rendered.
type Format string

const (
	// Table renders entries as tables, one per session.
	Table Format = "table"
	// Text renders entries as plain text reports.
	Text Format = "text"
	// JSON renders one JSON document per line.
	JSON Format = "json"
	// Template renders entries with the user provided Go template.
	Template Format = "template"
)

var formats = []Format{Table, Text, JSON, Template}

// ParseFormat parses the output format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q. Choose between table|text|json|template", s)
}

// Config contains the tweaks that influence the behaviour of the console output.
type Config struct {
	Format   string `mapstructure:"format"`
	Template string `mapstructure:"template"`
}

// AddFlags registers persistent flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(frmt, string(Table), "Specifies the output format. Choose between table|text|json|template")
	flags.String(tmpl, "", "Go template applied to each entry when the output format is template")
}
