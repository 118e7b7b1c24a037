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

package mem

import (
	"fmt"
	"sort"

	"github.com/rabbitstack/usertable/pkg/util/va"
)

type region struct {
	base va.Address
	data []byte
}

func (r region) end() va.Address { return r.base + va.Address(len(r.data)) }

// Sparse is the in-memory address space made of non-overlapping
// regions. Reads may span adjacent regions as long as there is no
// gap between them. Sparse is not safe for concurrent mapping, but
// concurrent reads are fine once all regions are mapped.
type Sparse struct {
	regions []region
}

// NewSparse creates an empty sparse address space.
func NewSparse() *Sparse {
	return &Sparse{regions: make([]region, 0)}
}

// Map adds the region at the given base address. The data slice is
// retained and must not be modified afterwards.
func (s *Sparse) Map(base va.Address, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	r := region{base: base, data: data}
	if _, wraps := end(base, len(data)); wraps {
		return fmt.Errorf("region at 0x%s wraps around the address space", base)
	}
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].base >= base })
	if i > 0 && s.regions[i-1].end() > base {
		return fmt.Errorf("region at 0x%s overlaps region at 0x%s", base, s.regions[i-1].base)
	}
	if i < len(s.regions) && r.end() > s.regions[i].base {
		return fmt.Errorf("region at 0x%s overlaps region at 0x%s", base, s.regions[i].base)
	}
	s.regions = append(s.regions, region{})
	copy(s.regions[i+1:], s.regions[i:])
	s.regions[i] = r
	return nil
}

// MustMap maps the region and panics on overlaps. Used to build fixtures.
func (s *Sparse) MustMap(base va.Address, data []byte) *Sparse {
	if err := s.Map(base, data); err != nil {
		panic(err)
	}
	return s
}

// Regions returns the number of mapped regions.
func (s *Sparse) Regions() int { return len(s.regions) }

// Read reads n bytes starting at addr.
func (s *Sparse) Read(addr va.Address, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	stop, wraps := end(addr, n)
	if wraps {
		return nil, &UnmappedError{Addr: addr, Len: n}
	}
	out := make([]byte, 0, n)
	cur := addr
	for cur < stop {
		i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].end() > cur })
		if i == len(s.regions) || s.regions[i].base > cur {
			return nil, &UnmappedError{Addr: cur, Len: n}
		}
		r := s.regions[i]
		off := cur - r.base
		take := r.end() - cur
		if take > stop-cur {
			take = stop - cur
		}
		out = append(out, r.data[off:off+take]...)
		cur += take
	}
	return out, nil
}
