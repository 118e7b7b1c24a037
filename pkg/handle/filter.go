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

package handle

import (
	"fmt"

	"github.com/rabbitstack/usertable/pkg/handle/types"
)

// FilterKind enumerates the supported entry predicates.
type FilterKind uint8

const (
	// ExcludeFree drops unallocated slots.
	ExcludeFree FilterKind = iota + 1
	// ProcessIDEquals keeps entries owned by the given process.
	ProcessIDEquals
	// TypeEquals keeps entries of the given type.
	TypeEquals
)

// Filter is a single predicate over the decoded entry. Only the
// attribute that corresponds to the kind is meaningful.
type Filter struct {
	Kind FilterKind
	PID  uint64
	Type types.Type
}

// String returns the filter in human-readable form.
func (f Filter) String() string {
	switch f.Kind {
	case ExcludeFree:
		return "exclude-free"
	case ProcessIDEquals:
		return fmt.Sprintf("pid = %d", f.PID)
	case TypeEquals:
		return fmt.Sprintf("type = %s", f.Type)
	default:
		return fmt.Sprintf("unknown filter (%d)", f.Kind)
	}
}

// Match evaluates the predicate against the entry.
func (f Filter) Match(e *types.Entry) bool {
	switch f.Kind {
	case ExcludeFree:
		return !e.Free
	case ProcessIDEquals:
		return e.HasPID && e.PID == f.PID
	case TypeEquals:
		return e.Type == f.Type
	default:
		return false
	}
}

// Filters is the conjunction of predicates.
type Filters []Filter

// Match returns true if the entry satisfies all filters.
func (fs Filters) Match(e *types.Entry) bool {
	for _, f := range fs {
		if !f.Match(e) {
			return false
		}
	}
	return true
}

// Options drive a single table walk. The walk never mutates the options.
type Options struct {
	// IncludeFree yields unallocated slots too.
	IncludeFree bool
	// PID restricts the walk to entries owned by the process.
	PID *uint64
	// Type restricts the walk to entries of the type.
	Type *types.Type
	// DerefFree resolves owners and objects of free slots.
	DerefFree bool
	// ResolveObjects reads typed objects of the entries that have a reader.
	ResolveObjects bool
}

// Filters builds the predicate list for the options.
func (o Options) Filters() Filters {
	fs := make(Filters, 0, 3)
	if !o.IncludeFree {
		fs = append(fs, Filter{Kind: ExcludeFree})
	}
	if o.PID != nil {
		fs = append(fs, Filter{Kind: ProcessIDEquals, PID: *o.PID})
	}
	if o.Type != nil {
		fs = append(fs, Filter{Kind: TypeEquals, Type: *o.Type})
	}
	return fs
}

// WithType returns a copy of the options restricted to the given type.
func (o Options) WithType(t types.Type) Options {
	o.Type = &t
	return o
}
