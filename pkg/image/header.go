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

// Package image implements the snapshot image container. An image stores
// the sparse set of memory regions captured from the target along with
// the metadata required to decode them. The layout is depicted in the
// following diagram:
//
//	+-+-+-+-+-+-+-+-++-+-+-+-+-+-+-+-++-+-+-+
//	| Magic Number  | Major | Minor | Flags |
//	|----------------------------------------
//	| Meta Section  |   JSON metadata       |
//	-----------------------------------------
//	| Region Section | Base | zstd chunk ...|
//	| ......................................|
//	| ....... Region Section n ....... EOF  |
//	+-+-+-+-+-+-+-+-++-+-+-+-+-+-+-+-++-+-+-+
//
// Region chunks are compressed independently so the reader can decompress
// only the chunks touched by address space reads.
package image

import (
	"path/filepath"

	"github.com/rabbitstack/usertable/pkg/image/section"
	imgver "github.com/rabbitstack/usertable/pkg/image/version"
)

// magic has two purposes. It is used to identify image files. The magic is stored within the first 8 bytes of the file.
// The reader ensures the magic number matches this constant. Besides identifying the image, it serves as an
// input for initializing the byte order on the machine where the image is read.
const magic = 0x7573727461626c65

// major represents the major digit of the image file format. Incrementing the major digit makes older
// readers not capable to open the image.
const major = uint8(1)

// minor represents the minor digit of the image file format
const minor = uint8(0)

// flags denotes extra flags for the purpose of the header description
const flags = uint64(0)

// headerSize is the size of the magic, version digits and flags.
const headerSize = 8 + 1 + 1 + 8

// maxChunkSize is the maximum uncompressed size of a single region chunk.
const maxChunkSize = 64 * 1024

// Ext is the default image file extension.
const Ext = ".uimg"

// ws writes the section block with the specified parameters.
func (w *Writer) ws(typ section.Type, ver imgver.Version, l, size uint32) error {
	sec := section.New(typ, ver, l, size)
	if _, err := w.w.Write(sec[:]); err != nil {
		return errWriteSection(typ, err)
	}
	return nil
}

func withExt(filename string) string {
	if filepath.Ext(filename) == "" {
		filename += Ext
	}
	return filename
}
