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
	"bufio"
	"encoding/json"
	"expvar"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitstack/usertable/pkg/image/section"
	imgver "github.com/rabbitstack/usertable/pkg/image/version"
	"github.com/rabbitstack/usertable/pkg/util/bytes"
	"github.com/rabbitstack/usertable/pkg/util/va"
	zstd "github.com/valyala/gozstd"
)

var (
	errWriteMagic   = func(err error) error { return fmt.Errorf("couldn't write magic number: %v", err) }
	errWriteVersion = func(v string, err error) error { return fmt.Errorf("couldn't write %s image digit: %v", v, err) }
	errWriteSection = func(s section.Type, err error) error { return fmt.Errorf("couldn't write %s image section: %v", s, err) }

	regionWriteErrors = expvar.NewInt("image.region.write.errors")
	bytesWritten      = expvar.NewInt("image.bytes.written")
)

// Stats contains the image write statistics.
type Stats struct {
	Regions         uint64
	Chunks          uint64
	BytesMapped     uint64
	BytesCompressed uint64
}

// Writer produces snapshot images.
type Writer struct {
	f     *os.File
	w     *bufio.Writer
	level int
	meta  Meta
	stats Stats
}

// Create creates the image file and writes the header along with the metadata
// section. Metadata without identifier or creation time gets them assigned. A
// compression level of zero selects the default zstd level.
func Create(filename string, meta Meta, level int) (*Writer, error) {
	filename = withExt(filename)
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		level = zstd.DefaultCompressionLevel
	}
	w := &Writer{f: f, w: bufio.NewWriter(f), level: level}

	if err := w.writeHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	if meta.Created.IsZero() {
		meta.Created = time.Now().UTC()
	}
	if err := w.writeMeta(meta); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.meta = meta
	return w, nil
}

func (w *Writer) writeHeader() error {
	if _, err := w.w.Write(bytes.WriteUint64(magic)); err != nil {
		return errWriteMagic(err)
	}
	if _, err := w.w.Write([]byte{major}); err != nil {
		return errWriteVersion("major", err)
	}
	if _, err := w.w.Write([]byte{minor}); err != nil {
		return errWriteVersion("minor", err)
	}
	if _, err := w.w.Write(bytes.WriteUint64(flags)); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeMeta(meta Meta) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := w.ws(section.Meta, imgver.MetaSecV1, 0, uint32(len(b))); err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return errWriteSection(section.Meta, err)
	}
	return nil
}

// Meta returns the metadata written to the image.
func (w *Writer) Meta() Meta { return w.meta }

// WriteRegion writes the memory region starting at the base address. Large
// regions are split into independently compressed chunks.
func (w *Writer) WriteRegion(base va.Address, data []byte) error {
	if base.Inc(uint64(len(data))) < base {
		return fmt.Errorf("region at 0x%s wraps around the address space", base)
	}
	for off := 0; off < len(data); off += maxChunkSize {
		end := off + maxChunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := w.writeChunk(base.Inc(uint64(off)), data[off:end]); err != nil {
			regionWriteErrors.Add(1)
			return err
		}
	}
	w.stats.Regions++
	return nil
}

func (w *Writer) writeChunk(base va.Address, chunk []byte) error {
	c := zstd.CompressLevel(nil, chunk, w.level)
	if err := w.ws(section.Region, imgver.RegionSecV1, uint32(len(chunk)), uint32(8+len(c))); err != nil {
		return err
	}
	if _, err := w.w.Write(bytes.WriteUint64(base.Uint64())); err != nil {
		return errWriteSection(section.Region, err)
	}
	if _, err := w.w.Write(c); err != nil {
		return errWriteSection(section.Region, err)
	}
	w.stats.Chunks++
	w.stats.BytesMapped += uint64(len(chunk))
	w.stats.BytesCompressed += uint64(len(c))
	bytesWritten.Add(int64(len(c) + 8 + len(section.Section{})))
	return nil
}

// Stats returns the write statistics.
func (w *Writer) Stats() Stats { return w.stats }

// Close flushes the buffered sections and closes the image file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
