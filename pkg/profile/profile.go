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

// Package profile describes the structure layouts of a target OS
// version. Layouts drive every read of win32k and executive structures
// so the decoder never hard-codes field offsets.
package profile

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	uerrors "github.com/rabbitstack/usertable/pkg/errors"
)

// FieldType designates how the raw field bytes are interpreted.
type FieldType string

const (
	// Pointer is a pointer-sized field (also used for ULONG_PTR values)
	Pointer FieldType = "pointer"
	// Uint8 is a single byte field
	Uint8 FieldType = "uint8"
	// Uint16 is a two byte field
	Uint16 FieldType = "uint16"
	// Uint32 is a four byte field
	Uint32 FieldType = "uint32"
	// Uint64 is an eight byte field
	Uint64 FieldType = "uint64"
	// Char is a fixed-length ANSI character array
	Char FieldType = "char"
)

// Metadata identifies the target OS version the profile applies to.
type Metadata struct {
	OS          string `mapstructure:"os" json:"os"`
	Major       int    `mapstructure:"major" json:"major"`
	Minor       int    `mapstructure:"minor" json:"minor"`
	Build       int    `mapstructure:"build" json:"build"`
	MemoryModel string `mapstructure:"memory_model" json:"memory_model"`
}

// String returns the human-readable OS version.
func (m Metadata) String() string {
	return fmt.Sprintf("%s %d.%d.%d (%s)", m.OS, m.Major, m.Minor, m.Build, m.MemoryModel)
}

// Field describes the location of a single structure member.
type Field struct {
	Offset uint32    `mapstructure:"offset"`
	Type   FieldType `mapstructure:"type"`
	// Len is the number of bytes of char arrays.
	Len uint32 `mapstructure:"len"`
}

// Struct is the layout of a single structure.
type Struct struct {
	Size   uint32           `mapstructure:"size"`
	Fields map[string]Field `mapstructure:"fields"`
}

// Enum maps constant values to their symbolic names.
type Enum map[uint32]string

// Name returns the symbolic name of the value if the enumeration knows about it.
func (e Enum) Name(v uint32) (string, bool) {
	if e == nil {
		return "", false
	}
	n, ok := e[v]
	return n, ok
}

// Profile stores structure layouts and constant tables for a target OS version.
type Profile struct {
	Name     string
	Metadata Metadata
	Structs  map[string]Struct
	Enums    map[string]Enum
}

// PointerSize returns the pointer width in bytes dictated by the memory model.
func (p *Profile) PointerSize() int {
	if p.Metadata.MemoryModel == "32bit" {
		return 4
	}
	return 8
}

// Has determines if the structure layout contains the given field.
func (p *Profile) Has(structName, field string) bool {
	_, err := p.Field(structName, field)
	return err == nil
}

// Field returns the layout of the structure field.
func (p *Profile) Field(structName, field string) (Field, error) {
	s, ok := p.Structs[structName]
	if !ok {
		return Field{}, errors.Errorf("%s structure is not present in %s profile", structName, p.Name)
	}
	f, ok := s.Fields[field]
	if !ok {
		return Field{}, &uerrors.ErrFieldNotFound{Struct: structName, Name: field}
	}
	return f, nil
}

// Offset returns the field offset inside the structure.
func (p *Profile) Offset(structName, field string) (uint32, error) {
	f, err := p.Field(structName, field)
	if err != nil {
		return 0, err
	}
	return f.Offset, nil
}

// Size returns the size of the structure.
func (p *Profile) Size(structName string) (uint32, error) {
	s, ok := p.Structs[structName]
	if !ok {
		return 0, errors.Errorf("%s structure is not present in %s profile", structName, p.Name)
	}
	return s.Size, nil
}

// Enum returns the named constant table. A missing table yields a nil
// enumeration that never resolves names.
func (p *Profile) Enum(name string) Enum { return p.Enums[name] }

// FieldSize returns the number of bytes occupied by the field.
func (p *Profile) FieldSize(f Field) int {
	switch f.Type {
	case Pointer:
		return p.PointerSize()
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	case Uint64:
		return 8
	case Char:
		return int(f.Len)
	default:
		return 0
	}
}

// StructNames returns sorted structure names.
func (p *Profile) StructNames() []string {
	names := make([]string, 0, len(p.Structs))
	for name := range p.Structs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
