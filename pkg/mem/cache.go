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
	"expvar"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/rabbitstack/usertable/pkg/util/va"
)

const (
	// PageSize is the granularity of the read cache.
	PageSize = 0x1000
	// defaultCachedPages is the number of pages retained by the cache.
	defaultCachedPages = 4096
)

var (
	cacheHits   = expvar.NewInt("mem.cache.hits")
	cacheMisses = expvar.NewInt("mem.cache.misses")
)

// Cached decorates an address space with a page-granular LRU read cache.
// Pages that can't be read in full are never cached, and reads touching
// such pages go straight to the underlying address space so the
// unmapped semantics are preserved byte for byte.
type Cached struct {
	as    AddressSpace
	pages *lru.Cache
	mu    sync.Mutex
}

// NewCached wraps the address space. If maxPages is zero, the default cache size is used.
func NewCached(as AddressSpace, maxPages int) *Cached {
	if maxPages <= 0 {
		maxPages = defaultCachedPages
	}
	return &Cached{as: as, pages: lru.New(maxPages)}
}

// Read reads n bytes starting at addr.
func (c *Cached) Read(addr va.Address, n int) ([]byte, error) {
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
		base := cur &^ (PageSize - 1)
		page, ok := c.page(base)
		if !ok {
			return c.as.Read(addr, n)
		}
		off := cur - base
		take := PageSize - off
		if take > stop-cur {
			take = stop - cur
		}
		out = append(out, page[off:off+take]...)
		cur += take
	}
	return out, nil
}

func (c *Cached) page(base va.Address) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.pages.Get(uint64(base)); ok {
		cacheHits.Add(1)
		return v.([]byte), true
	}
	cacheMisses.Add(1)
	b, err := c.as.Read(base, PageSize)
	if err != nil {
		return nil, false
	}
	c.pages.Add(uint64(base), b)
	return b, true
}
