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

package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finchdb/internal/errors"
)

func TestPageInsertAndRead(t *testing.T) {
	p := NewPage()
	data := []byte("hello tuple")

	idx, err := p.InsertTuple(7, 0, data)
	require.NoError(t, err)

	hdr, got, err := p.ReadTuple(idx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), hdr.Xmin)
	assert.Equal(t, uint64(0), hdr.Xmax)
	assert.Equal(t, uint32(TupleHeaderSize+len(data)), hdr.Length)
	assert.Equal(t, data, got)
}

func TestPageAccounting(t *testing.T) {
	p := NewPage()
	assert.Equal(t, DataSize, p.FreeSpace())
	assert.Equal(t, MaxSlots, p.FreeSlots())

	data := []byte("0123456789")
	idx, err := p.InsertTuple(1, 0, data)
	require.NoError(t, err)
	assert.Equal(t, DataSize-TupleHeaderSize-len(data), p.FreeSpace())
	assert.Equal(t, MaxSlots-1, p.FreeSlots())

	require.NoError(t, p.DeleteTuple(idx))
	assert.Equal(t, DataSize, p.FreeSpace())
	assert.Equal(t, MaxSlots, p.FreeSlots())
}

func TestPageSlotReuse(t *testing.T) {
	p := NewPage()

	a, err := p.InsertTuple(1, 0, []byte("aaaa"))
	require.NoError(t, err)
	b, err := p.InsertTuple(2, 0, []byte("bbbb"))
	require.NoError(t, err)
	require.NoError(t, p.DeleteTuple(a))

	// First-fit places the new tuple in the freed slot and gap.
	c, err := p.InsertTuple(3, 0, []byte("cccc"))
	require.NoError(t, err)
	assert.Equal(t, a, c)

	hdr, data, err := p.ReadTuple(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), hdr.Xmin)
	assert.Equal(t, []byte("bbbb"), data)
}

func TestPageReadUnusedSlot(t *testing.T) {
	p := NewPage()
	_, _, err := p.ReadTuple(0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSlotNotFound, errors.GetCode(err))

	_, _, err = p.ReadTuple(-1)
	require.Error(t, err)
	_, _, err = p.ReadTuple(MaxSlots)
	require.Error(t, err)
}

func TestPageTupleTooBig(t *testing.T) {
	p := NewPage()
	_, err := p.InsertTuple(1, 0, make([]byte, DataSize))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTupleTooBig, errors.GetCode(err))
}

func TestPageFull(t *testing.T) {
	p := NewPage()
	big := make([]byte, DataSize-TupleHeaderSize)
	_, err := p.InsertTuple(1, 0, big)
	require.NoError(t, err)
	assert.Equal(t, 0, p.FreeSpace())

	_, err = p.InsertTuple(2, 0, []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePageFull, errors.GetCode(err))
}

func TestPageSlotExhaustion(t *testing.T) {
	p := NewPage()
	for i := 0; i < MaxSlots; i++ {
		_, err := p.InsertTuple(uint64(i), 0, []byte("x"))
		require.NoError(t, err)
	}
	_, err := p.InsertTuple(999, 0, []byte("x"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePageFull, errors.GetCode(err))
}

func TestPageMarshalRoundTrip(t *testing.T) {
	p := NewPage()
	first, err := p.InsertTuple(10, 0, []byte("first tuple"))
	require.NoError(t, err)
	second, err := p.InsertTuple(11, 12, []byte("second tuple"))
	require.NoError(t, err)
	require.NoError(t, p.DeleteTuple(first))

	buf := p.Marshal()
	require.Len(t, buf, PageSize)

	q, err := UnmarshalPage(buf)
	require.NoError(t, err)
	assert.Equal(t, p.FreeSpace(), q.FreeSpace())
	assert.Equal(t, p.FreeSlots(), q.FreeSlots())

	_, _, err = q.ReadTuple(first)
	require.Error(t, err)

	hdr, data, err := q.ReadTuple(second)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), hdr.Xmin)
	assert.Equal(t, uint64(12), hdr.Xmax)
	assert.Equal(t, []byte("second tuple"), data)

	// A marshaled reconstruction is byte-identical.
	assert.True(t, bytes.Equal(buf, q.Marshal()))
}

func TestUnmarshalPageRejectsCorruption(t *testing.T) {
	_, err := UnmarshalPage(make([]byte, PageSize-1))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePageCorrupt, errors.GetCode(err))

	// Header counters out of range.
	buf := make([]byte, PageSize)
	buf[0] = 0xFF
	buf[1] = 0xFF
	_, err = UnmarshalPage(buf)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePageCorrupt, errors.GetCode(err))

	// Slot extent past the data region.
	p := NewPage()
	_, insertErr := p.InsertTuple(1, 0, []byte("x"))
	require.NoError(t, insertErr)
	buf = p.Marshal()
	buf[PageHeaderSize] = 0xFF // slot 0 offset low byte
	buf[PageHeaderSize+1] = 0xFF
	_, err = UnmarshalPage(buf)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePageCorrupt, errors.GetCode(err))
}
