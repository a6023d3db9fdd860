/*
 * Copyright (c) 2026 The FinchDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package storage implements disk-based table storage for FinchDB using a
page-oriented architecture similar to PostgreSQL and other production
databases.

Slotted Page Architecture:
==========================

FinchDB organizes table data into fixed 8KB pages with a slotted layout.
Each page has a small header, a fixed array of 256 slot descriptors, and
a data region holding the tuples themselves:

	┌──────────────────────────────────────────────────────────┐
	│  Page Header (4 bytes)   [freeSpace | freeSlots]         │
	├──────────────────────────────────────────────────────────┤
	│  Slot Array (256 × 6 bytes)                              │
	│  [Slot 0: offset,len,used] [Slot 1: ...] ...             │
	├──────────────────────────────────────────────────────────┤
	│  Data Region (6652 bytes)                                │
	│  [TupleHeader | tuple data] [TupleHeader | tuple data]   │
	└──────────────────────────────────────────────────────────┘

Each stored tuple is prefixed by a 20-byte header carrying the MVCC
transaction bounds (xmin, xmax) and the total stored length. Tuples are
placed by a first-fit search over the gaps between live tuples, so space
freed by deletion is reused without compaction.

All multi-byte fields are little-endian. A page marshals to exactly
PageSize bytes, so page N lives at byte offset N * PageSize in its
table file.

Page Size Selection:
====================

FinchDB uses 8KB pages, matching PostgreSQL's default. This size
balances I/O efficiency against memory waste for sparse data. Common
page sizes in production databases:

  - PostgreSQL: 8KB (default)
  - MySQL InnoDB: 16KB (default)
  - SQLite: 4KB (default)

References:
===========

  - "Database Internals" by Alex Petrov, Chapter 3: File Formats
  - PostgreSQL Documentation: Database Page Layout
*/
package storage

import (
	"encoding/binary"

	"finchdb/internal/errors"
)

// Page layout constants.
const (
	// PageSize is the size of each page in bytes (8KB like PostgreSQL).
	PageSize = 8192

	// MaxSlots is the fixed number of slot descriptors per page.
	MaxSlots = 256

	// PageHeaderSize is the size of the page header in bytes.
	PageHeaderSize = 4

	// SlotSize is the size of one slot descriptor in bytes.
	SlotSize = 6 // 2 offset + 2 length + 1 used + 1 pad

	// DataSize is the size of the tuple data region in bytes.
	DataSize = PageSize - PageHeaderSize - SlotSize*MaxSlots

	// TupleHeaderSize is the size of the per-tuple header in bytes.
	TupleHeaderSize = 20 // 8 xmin + 8 xmax + 4 length
)

// TupleHeader carries the MVCC visibility bounds and stored length of
// one tuple. Length covers the header itself plus the tuple data.
type TupleHeader struct {
	Xmin   uint64 // Transaction that created the tuple
	Xmax   uint64 // Transaction that deleted it (0 = live)
	Length uint32 // Total stored length including this header
}

// marshalTo writes the header in little-endian layout.
func (h TupleHeader) marshalTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Xmin)
	binary.LittleEndian.PutUint64(buf[8:16], h.Xmax)
	binary.LittleEndian.PutUint32(buf[16:20], h.Length)
}

// tupleHeaderFrom reads a little-endian tuple header.
func tupleHeaderFrom(buf []byte) TupleHeader {
	return TupleHeader{
		Xmin:   binary.LittleEndian.Uint64(buf[0:8]),
		Xmax:   binary.LittleEndian.Uint64(buf[8:16]),
		Length: binary.LittleEndian.Uint32(buf[16:20]),
	}
}

// slot is one slot descriptor: where a tuple lives in the data region.
type slot struct {
	offset uint16
	length uint16
	used   bool
}

// Page is one 8KB slotted page.
type Page struct {
	freeSpace uint16 // Bytes available in the data region
	freeSlots uint16 // Unused slot descriptors
	slots     [MaxSlots]slot
	data      [DataSize]byte
}

// NewPage creates an empty page: all slots free, full data region.
func NewPage() *Page {
	return &Page{
		freeSpace: DataSize,
		freeSlots: MaxSlots,
	}
}

// FreeSpace returns the number of data-region bytes still available.
func (p *Page) FreeSpace() int {
	return int(p.freeSpace)
}

// FreeSlots returns the number of unused slot descriptors.
func (p *Page) FreeSlots() int {
	return int(p.freeSlots)
}

// findFreeSlot returns the lowest unused slot index.
func (p *Page) findFreeSlot() (int, bool) {
	for i := range p.slots {
		if !p.slots[i].used {
			return i, true
		}
	}
	return 0, false
}

// findFreeOffset locates a data-region offset with length contiguous
// free bytes, first-fit over the gaps between live tuples.
func (p *Page) findFreeOffset(length int) (uint16, bool) {
	type extent struct{ start, end int }
	var used []extent
	for i := range p.slots {
		s := p.slots[i]
		if s.used {
			used = append(used, extent{int(s.offset), int(s.offset) + int(s.length)})
		}
	}
	if len(used) == 0 {
		return 0, true
	}
	// Sort by start offset; the slot array is small so insertion sort
	// is fine.
	for i := 1; i < len(used); i++ {
		for j := i; j > 0 && used[j].start < used[j-1].start; j-- {
			used[j], used[j-1] = used[j-1], used[j]
		}
	}
	if used[0].start >= length {
		return 0, true
	}
	for i := 0; i+1 < len(used); i++ {
		if used[i+1].start-used[i].end >= length {
			return uint16(used[i].end), true
		}
	}
	last := used[len(used)-1]
	if last.end+length <= DataSize {
		return uint16(last.end), true
	}
	return 0, false
}

// InsertTuple stores a tuple with the given MVCC bounds and returns its
// slot index. The tuple is written as a TupleHeader followed by the
// data, placed by first-fit search over the free gaps.
func (p *Page) InsertTuple(xmin, xmax uint64, data []byte) (int, error) {
	total := TupleHeaderSize + len(data)
	if total > DataSize {
		return 0, errors.TupleTooBig(total, DataSize)
	}
	if total > int(p.freeSpace) {
		return 0, errors.PageFull(total, int(p.freeSpace))
	}
	idx, ok := p.findFreeSlot()
	if !ok {
		return 0, errors.PageFull(total, 0).WithDetail("no free slots")
	}
	offset, ok := p.findFreeOffset(total)
	if !ok {
		return 0, errors.PageFull(total, int(p.freeSpace)).
			WithDetail("free space is fragmented")
	}

	hdr := TupleHeader{Xmin: xmin, Xmax: xmax, Length: uint32(total)}
	hdr.marshalTo(p.data[offset : offset+TupleHeaderSize])
	copy(p.data[int(offset)+TupleHeaderSize:int(offset)+total], data)

	p.slots[idx] = slot{offset: offset, length: uint16(total), used: true}
	p.freeSpace -= uint16(total)
	p.freeSlots--
	return idx, nil
}

// ReadTuple returns the header and data of the tuple in the given slot.
// The returned data is a copy.
func (p *Page) ReadTuple(idx int) (TupleHeader, []byte, error) {
	if idx < 0 || idx >= MaxSlots || !p.slots[idx].used {
		return TupleHeader{}, nil, errors.SlotNotFound(idx)
	}
	s := p.slots[idx]
	hdr := tupleHeaderFrom(p.data[s.offset : s.offset+TupleHeaderSize])
	if int(hdr.Length) != int(s.length) {
		return TupleHeader{}, nil, errors.PageCorrupt(
			"tuple header length disagrees with slot length")
	}
	data := make([]byte, int(s.length)-TupleHeaderSize)
	copy(data, p.data[int(s.offset)+TupleHeaderSize:int(s.offset)+int(s.length)])
	return hdr, data, nil
}

// DeleteTuple frees the given slot. The data bytes are left in place
// and become reusable free space.
func (p *Page) DeleteTuple(idx int) error {
	if idx < 0 || idx >= MaxSlots || !p.slots[idx].used {
		return errors.SlotNotFound(idx)
	}
	p.freeSpace += p.slots[idx].length
	p.freeSlots++
	p.slots[idx] = slot{}
	return nil
}

// Marshal serializes the page to its fixed PageSize on-disk layout.
func (p *Page) Marshal() []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint16(buf[0:2], p.freeSpace)
	binary.LittleEndian.PutUint16(buf[2:4], p.freeSlots)
	for i := range p.slots {
		off := PageHeaderSize + i*SlotSize
		binary.LittleEndian.PutUint16(buf[off:off+2], p.slots[i].offset)
		binary.LittleEndian.PutUint16(buf[off+2:off+4], p.slots[i].length)
		if p.slots[i].used {
			buf[off+4] = 1
		}
	}
	copy(buf[PageHeaderSize+MaxSlots*SlotSize:], p.data[:])
	return buf
}

// UnmarshalPage reconstructs a page from its on-disk form.
func UnmarshalPage(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, errors.PageCorrupt(
			"page must be exactly 8192 bytes")
	}
	p := &Page{
		freeSpace: binary.LittleEndian.Uint16(buf[0:2]),
		freeSlots: binary.LittleEndian.Uint16(buf[2:4]),
	}
	if p.freeSpace > DataSize || p.freeSlots > MaxSlots {
		return nil, errors.PageCorrupt("header counters out of range")
	}
	for i := range p.slots {
		off := PageHeaderSize + i*SlotSize
		s := slot{
			offset: binary.LittleEndian.Uint16(buf[off : off+2]),
			length: binary.LittleEndian.Uint16(buf[off+2 : off+4]),
			used:   buf[off+4] == 1,
		}
		if s.used && (int(s.offset)+int(s.length) > DataSize || s.length < TupleHeaderSize) {
			return nil, errors.PageCorrupt("slot extent out of range")
		}
		p.slots[i] = s
	}
	copy(p.data[:], buf[PageHeaderSize+MaxSlots*SlotSize:])
	return p, nil
}
