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

// Package version holds the release information stamped into the binary at build time.
package version

import (
	"fmt"
	"io"
	"runtime"

	semver "github.com/hashicorp/go-version"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Version stores the SemVer release information along with the
// commit that produced the release and the build date.
type Version struct {
	Release *semver.Version
	Commit  string
	Date    string
}

// New parses the release string. An empty release denotes a dev build.
func New(release, commit, date string) (Version, error) {
	v := Version{Commit: commit, Date: date}
	if release == "" || release == "dev" {
		return v, nil
	}
	sem, err := semver.NewSemver(release)
	if err != nil {
		return v, fmt.Errorf("invalid semver release %q: %v", release, err)
	}
	v.Release = sem
	return v, nil
}

// IsDev determines if this is a dev build.
func (v Version) IsDev() bool { return v.Release == nil }

// String returns the release string.
func (v Version) String() string {
	if v.IsDev() {
		return "dev"
	}
	return v.Release.String()
}

// ProductToken returns the tag stamped into the snapshot images produced by this build.
func (v Version) ProductToken() string { return "usertable/" + v.String() }

// Render writes the version table. Additional rows are appended after the build details.
func (v Version) Render(w io.Writer, rows ...table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Version", v.String()})
	t.AppendRow(table.Row{"Commit", v.Commit})
	t.AppendRow(table.Row{"Build date", v.Date})

	t.AppendSeparator()

	t.AppendRow(table.Row{"Go compiler", runtime.Version()})
	for _, row := range rows {
		t.AppendRow(row)
	}

	t.Render()
}
