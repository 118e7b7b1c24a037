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

package image

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Print renders the image summary along with the snapshot metadata.
func (i Info) Print(w io.Writer, meta Meta) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Image")
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"File", filepath.Base(i.Name)})
	t.AppendRow(table.Row{"ID", meta.ID})
	t.AppendRow(table.Row{"Created", humanize.Time(meta.Created)})
	if meta.Tool != "" {
		t.AppendRow(table.Row{"Tool", meta.Tool})
	}
	t.AppendSeparator()

	t.AppendRow(table.Row{"Profile", meta.Profile})
	t.AppendRow(table.Row{"OS", meta.OS + " " + strconv.Itoa(meta.Major) + "." + strconv.Itoa(meta.Minor)})
	t.AppendRow(table.Row{"Memory model", meta.MemoryModel})
	t.AppendRow(table.Row{"Sessions", len(meta.Sessions)})
	for _, s := range meta.Sessions {
		t.AppendRow(table.Row{"Session " + strconv.Itoa(int(s.ID)), "0x" + s.SharedInfo.String()})
	}
	t.AppendSeparator()

	t.AppendRow(table.Row{"Regions", i.Regions})
	t.AppendRow(table.Row{"Chunks", i.Chunks})
	t.AppendRow(table.Row{"Mapped size", humanize.Bytes(i.MappedBytes)})
	t.AppendRow(table.Row{"Image size", humanize.Bytes(uint64(i.FileSize))})

	t.Render()
}

// Print renders the write statistics.
func (s Stats) Print(w io.Writer, filename string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Pack Statistics")
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"File", filepath.Base(filename)})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Regions written", s.Regions})
	t.AppendRow(table.Row{"Chunks written", s.Chunks})
	t.AppendRow(table.Row{"Bytes mapped", humanize.Bytes(s.BytesMapped)})
	t.AppendRow(table.Row{"Bytes compressed", humanize.Bytes(s.BytesCompressed)})

	t.Render()
}
