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

import (
	"github.com/pkg/errors"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/util/bytes"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

// Record is the raw image of a structure read in one go from the address space.
type Record struct {
	// Struct is the name of the structure layout.
	Struct string
	// Addr is the virtual address the structure was read from.
	Addr va.Address

	data []byte
	prof *Profile
}

// ReadStruct reads the whole structure located at the given address.
func (p *Profile) ReadStruct(as mem.AddressSpace, structName string, addr va.Address) (*Record, error) {
	size, err := p.Size(structName)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errors.Errorf("%s structure has zero size in %s profile", structName, p.Name)
	}
	b, err := as.Read(addr, int(size))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s at 0x%s", structName, addr)
	}
	return &Record{Struct: structName, Addr: addr, data: b, prof: p}, nil
}

// ReadPointer reads a single pointer field of the structure that starts at
// the given address. Only the field bytes are read, so it is suitable for
// chasing pointers through large structures.
func (p *Profile) ReadPointer(as mem.AddressSpace, structName, field string, addr va.Address) (va.Address, error) {
	v, err := p.ReadUint(as, structName, field, addr)
	return va.Address(v), err
}

// ReadUint reads a single scalar field of the structure that starts at the given address.
func (p *Profile) ReadUint(as mem.AddressSpace, structName, field string, addr va.Address) (uint64, error) {
	f, err := p.Field(structName, field)
	if err != nil {
		return 0, err
	}
	n := p.FieldSize(f)
	b, err := as.Read(addr.Inc(uint64(f.Offset)), n)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to read %s.%s", structName, field)
	}
	return decode(f, b, p.PointerSize()), nil
}

// ReadString reads a single char array field of the structure that starts at the given address.
func (p *Profile) ReadString(as mem.AddressSpace, structName, field string, addr va.Address) (string, error) {
	f, err := p.Field(structName, field)
	if err != nil {
		return "", err
	}
	if f.Type != Char {
		return "", errors.Errorf("%s.%s is not a char array", structName, field)
	}
	b, err := as.Read(addr.Inc(uint64(f.Offset)), p.FieldSize(f))
	if err != nil {
		return "", errors.Wrapf(err, "unable to read %s.%s", structName, field)
	}
	return cstring(b), nil
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func decode(f Field, b []byte, ptrSize int) uint64 {
	switch f.Type {
	case Pointer:
		return bytes.ReadPointer(b, ptrSize)
	case Uint8:
		return uint64(b[0])
	case Uint16:
		return uint64(bytes.TargetEndian.Uint16(b))
	case Uint32:
		return uint64(bytes.TargetEndian.Uint32(b))
	case Uint64:
		return bytes.TargetEndian.Uint64(b)
	default:
		return 0
	}
}

func (r *Record) slice(name string) (Field, []byte, error) {
	f, err := r.prof.Field(r.Struct, name)
	if err != nil {
		return Field{}, nil, err
	}
	n := r.prof.FieldSize(f)
	if n == 0 || int(f.Offset)+n > len(r.data) {
		return Field{}, nil, errors.Errorf("%s.%s is out of the structure bounds", r.Struct, name)
	}
	return f, r.data[f.Offset : int(f.Offset)+n], nil
}

// Uint returns the field value zero-extended to 64 bits.
func (r *Record) Uint(name string) (uint64, error) {
	f, b, err := r.slice(name)
	if err != nil {
		return 0, err
	}
	if f.Type == Char {
		return 0, errors.Errorf("%s.%s is not a scalar field", r.Struct, name)
	}
	return decode(f, b, r.prof.PointerSize()), nil
}

// Uint32 returns the field value truncated to 32 bits.
func (r *Record) Uint32(name string) (uint32, error) {
	v, err := r.Uint(name)
	return uint32(v), err
}

// Pointer returns the pointer field value.
func (r *Record) Pointer(name string) (va.Address, error) {
	v, err := r.Uint(name)
	return va.Address(v), err
}

// String returns the NUL-terminated contents of a char array field.
func (r *Record) String(name string) (string, error) {
	f, b, err := r.slice(name)
	if err != nil {
		return "", err
	}
	if f.Type != Char {
		return "", errors.Errorf("%s.%s is not a char array", r.Struct, name)
	}
	return cstring(b), nil
}
