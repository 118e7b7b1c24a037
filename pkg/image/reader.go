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
	"encoding/binary"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/rabbitstack/usertable/pkg/image/section"
	"github.com/rabbitstack/usertable/pkg/mem"
	"github.com/rabbitstack/usertable/pkg/util/bytes"
	"github.com/rabbitstack/usertable/pkg/util/va"
	log "github.com/sirupsen/logrus"
	zstd "github.com/valyala/gozstd"
)

var (
	errMagicMismatch = errors.New("invalid image file magic number")
	errMajorVer      = errors.New("incompatible image version format. Please upgrade usertable to newer version")
	errMissingMeta   = errors.New("image has no metadata section")
	errReadVersion   = func(s string, err error) error { return fmt.Errorf("couldn't read %s version digit: %v", s, err) }
	errReadSection   = func(s section.Type, err error) error { return fmt.Errorf("couldn't read %s section: %v", s, err) }

	chunkDecompressions = expvar.NewInt("image.chunk.decompressions")
	chunkCacheHits      = expvar.NewInt("image.chunk.cache.hits")
	bytesRead           = expvar.NewInt("image.bytes.read")
)

// DefaultCachedChunks is the number of decompressed chunks the reader keeps in memory.
const DefaultCachedChunks = 256

// chunk locates a compressed region chunk inside the image file.
type chunk struct {
	base  va.Address
	len   uint32
	off   int64
	csize uint32
}

func (c chunk) end() va.Address { return c.base.Inc(uint64(c.len)) }

// Reader opens snapshot images and serves them as address spaces. The
// section index is built once when the image is opened, while chunks are
// decompressed on demand.
type Reader struct {
	f      *os.File
	name   string
	size   int64
	major  uint8
	minor  uint8
	meta   Meta
	chunks []chunk

	mu    sync.Mutex // guards the chunk cache
	cache *lru.Cache
}

// Open opens the image and indexes its sections.
func Open(filename string) (*Reader, error) {
	filename = withExt(filename)
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q image file does not exist", filename)
		}
		return nil, err
	}
	r := &Reader{f: f, name: filename, cache: lru.New(DefaultCachedChunks)}
	if err := r.index(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) index() error {
	fi, err := r.f.Stat()
	if err != nil {
		return err
	}
	r.size = fi.Size()

	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r.f, hdr[:8]); err != nil {
		return errMagicMismatch
	}
	if binary.LittleEndian.Uint64(hdr[:8]) != magic && binary.BigEndian.Uint64(hdr[:8]) != magic {
		return errMagicMismatch
	}
	// from now on all byte reads will use the endianness of the magic number.
	// This guarantees we'll be able to open images that were written
	// on a machine with a different endianness.
	bytes.InitNativeEndian(hdr[:8])
	if _, err := io.ReadFull(r.f, hdr[8:9]); err != nil {
		return errReadVersion("major", err)
	}
	if _, err := io.ReadFull(r.f, hdr[9:10]); err != nil {
		return errReadVersion("minor", err)
	}
	r.major, r.minor = hdr[8], hdr[9]
	if r.major > major {
		return errMajorVer
	}
	// read the flags bit vector but do nothing with it at the moment
	if _, err := io.ReadFull(r.f, hdr[10:]); err != nil {
		return fmt.Errorf("fail to read image flags: %v", err)
	}

	off := int64(headerSize)
	var hasMeta bool
	for {
		var sec section.Section
		n, err := r.f.ReadAt(sec[:], off)
		if n == 0 && err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("couldn't read section header at offset %d: %v", off, err)
		}
		off += int64(len(sec))
		size := int64(sec.Size())
		if off+size > r.size {
			return errReadSection(sec.Type(), io.ErrUnexpectedEOF)
		}
		switch sec.Type() {
		case section.Meta:
			b := make([]byte, size)
			if _, err := r.f.ReadAt(b, off); err != nil {
				return errReadSection(section.Meta, err)
			}
			if err := json.Unmarshal(b, &r.meta); err != nil {
				return errReadSection(section.Meta, err)
			}
			hasMeta = true
		case section.Region:
			if size < 8 {
				return errReadSection(section.Region, io.ErrUnexpectedEOF)
			}
			b := make([]byte, 8)
			if _, err := r.f.ReadAt(b, off); err != nil {
				return errReadSection(section.Region, err)
			}
			r.chunks = append(r.chunks, chunk{
				base:  va.Address(bytes.ReadUint64(b)),
				len:   sec.Len(),
				off:   off + 8,
				csize: uint32(size - 8),
			})
		default:
			log.Warnf("skipping unknown image section: %s", sec)
		}
		off += size
	}
	if !hasMeta {
		return errMissingMeta
	}

	sort.Slice(r.chunks, func(i, j int) bool { return r.chunks[i].base < r.chunks[j].base })
	for i := 1; i < len(r.chunks); i++ {
		if r.chunks[i-1].end() > r.chunks[i].base {
			return fmt.Errorf("region at 0x%s overlaps region at 0x%s", r.chunks[i].base, r.chunks[i-1].base)
		}
	}
	return nil
}

// Name returns the image file name.
func (r *Reader) Name() string { return r.name }

// Meta returns the snapshot metadata.
func (r *Reader) Meta() Meta { return r.meta }

// Version returns the major and minor digits of the image format.
func (r *Reader) Version() (uint8, uint8) { return r.major, r.minor }

// load returns the decompressed contents of the chunk.
func (r *Reader) load(i int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.cache.Get(i); ok {
		chunkCacheHits.Add(1)
		return b.([]byte), nil
	}
	c := r.chunks[i]
	cb := make([]byte, c.csize)
	if _, err := r.f.ReadAt(cb, c.off); err != nil {
		return nil, errReadSection(section.Region, err)
	}
	b, err := zstd.Decompress(make([]byte, 0, c.len), cb)
	if err != nil {
		return nil, fmt.Errorf("couldn't decompress region chunk at 0x%s: %v", c.base, err)
	}
	if len(b) != int(c.len) {
		return nil, fmt.Errorf("region chunk at 0x%s has %d bytes, expected %d", c.base, len(b), c.len)
	}
	chunkDecompressions.Add(1)
	r.cache.Add(i, b)
	return b, nil
}

// Read reads n bytes at the given address. Reads may span adjacent chunks.
func (r *Reader) Read(addr va.Address, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	stop := addr.Inc(uint64(n))
	if stop < addr {
		return nil, &mem.UnmappedError{Addr: addr, Len: n}
	}
	out := make([]byte, 0, n)
	cur := addr
	for cur < stop {
		i := sort.Search(len(r.chunks), func(i int) bool { return r.chunks[i].end() > cur })
		if i == len(r.chunks) || r.chunks[i].base > cur {
			return nil, &mem.UnmappedError{Addr: cur, Len: n}
		}
		b, err := r.load(i)
		if err != nil {
			return nil, err
		}
		c := r.chunks[i]
		off := cur - c.base
		take := c.end() - cur
		if take > stop-cur {
			take = stop - cur
		}
		out = append(out, b[off:off+take]...)
		cur += take
	}
	bytesRead.Add(int64(n))
	return out, nil
}

// Info summarizes the image contents.
type Info struct {
	Name        string
	FileSize    int64
	Chunks      int
	Regions     int
	MappedBytes uint64
}

// Info returns the image summary. Adjacent chunks are counted as a single region.
func (r *Reader) Info() Info {
	info := Info{Name: r.name, FileSize: r.size, Chunks: len(r.chunks)}
	for i, c := range r.chunks {
		info.MappedBytes += uint64(c.len)
		if i == 0 || r.chunks[i-1].end() != c.base {
			info.Regions++
		}
	}
	return info
}

// Close releases the image file.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Clear()
	return r.f.Close()
}
