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

package bytes

import (
	"encoding/binary"
	"unsafe"
)

// NativeEndian represents the endianness used by the snapshot container.
// It is initialized from the machine that runs the decoder and switched
// to the endianness of the image magic once an image is opened.
var NativeEndian binary.ByteOrder

// TargetEndian is the byte order of the decoded memory. Both x86 and
// x64 Windows targets are little-endian.
var TargetEndian binary.ByteOrder = binary.LittleEndian

func init() {
	InitNativeEndian(nil)
}

// InitNativeEndian figures out the endianness of the current machine or
// the machine that produced the 8-byte magic number in b.
func InitNativeEndian(b []byte) {
	buf := [8]byte{}
	if len(b) == 8 {
		copy(buf[:], b[:8])
	} else {
		*(*uint64)(unsafe.Pointer(&buf[0])) = uint64(0x7573727461626c65)
	}

	switch buf {
	case [8]byte{0x65, 0x6c, 0x62, 0x61, 0x74, 0x72, 0x73, 0x75}:
		NativeEndian = binary.LittleEndian
	case [8]byte{0x75, 0x73, 0x72, 0x74, 0x61, 0x62, 0x6c, 0x65}:
		NativeEndian = binary.BigEndian
	default:
		panic("could not determine native endianness")
	}
}

// ReadUint32 reads the uint32 value from the byte slice.
func ReadUint32(b []byte) uint32 {
	return NativeEndian.Uint32(b)
}

// ReadUint64 reads the uint64 value from the byte slice.
func ReadUint64(b []byte) uint64 {
	return NativeEndian.Uint64(b)
}

// WriteUint32 writes the provided uint32 value to byte slice.
func WriteUint32(v uint32) (b []byte) {
	b = make([]byte, 4)
	NativeEndian.PutUint32(b, v)
	return
}

// WriteUint64 writes the provided uint64 value to byte slice.
func WriteUint64(v uint64) (b []byte) {
	b = make([]byte, 8)
	NativeEndian.PutUint64(b, v)
	return
}

// ReadPointer decodes a target pointer of the given width (4 or 8 bytes).
func ReadPointer(b []byte, size int) uint64 {
	if size == 4 {
		return uint64(TargetEndian.Uint32(b))
	}
	return TargetEndian.Uint64(b)
}
