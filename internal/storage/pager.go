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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"finchdb/internal/errors"
	"finchdb/internal/logging"
)

// Pager performs page-granular file I/O for table files. Each table is
// one file named <table>.tbl under the data directory; page N occupies
// bytes [N*PageSize, (N+1)*PageSize).
//
// With encryption enabled the file layout changes: pages are stored as
// variable-length frames (a 4-byte big-endian ciphertext length followed
// by the ciphertext), since AES-GCM output is larger than its input.
// Frame files are read sequentially; the pager keeps a per-table index
// of frame offsets so reads stay random-access.
type Pager struct {
	dir string
	enc *Encryptor // nil = plaintext fixed-offset layout
	log *logging.Logger

	mu     sync.Mutex
	frames map[string][]int64 // table -> frame byte offsets (encrypted only)
}

// NewPager creates a Pager rooted at dir. The directory is created if
// missing. enc may be nil for plaintext storage.
func NewPager(dir string, enc *Encryptor) (*Pager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.IOError("create data directory", err)
	}
	return &Pager{
		dir:    dir,
		enc:    enc,
		log:    logging.NewLogger("pager"),
		frames: make(map[string][]int64),
	}, nil
}

// Dir returns the data directory the pager works under.
func (p *Pager) Dir() string {
	return p.dir
}

// tablePath returns the file path for a table.
func (p *Pager) tablePath(table string) string {
	return filepath.Join(p.dir, table+".tbl")
}

// PageCount returns the number of pages stored for a table. A missing
// table file counts as zero pages.
func (p *Pager) PageCount(table string) (int64, error) {
	if p.enc != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		offsets, err := p.frameOffsets(table)
		if err != nil {
			return 0, err
		}
		return int64(len(offsets)), nil
	}
	info, err := os.Stat(p.tablePath(table))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.IOError("stat table file", err)
	}
	if info.Size()%PageSize != 0 {
		return 0, errors.PageCorrupt(
			fmt.Sprintf("table file size %d is not a multiple of the page size", info.Size()))
	}
	return info.Size() / PageSize, nil
}

// ReadPage reads page pageNo of the given table.
func (p *Pager) ReadPage(table string, pageNo int64) (*Page, error) {
	if p.enc != nil {
		return p.readEncryptedPage(table, pageNo)
	}

	f, err := os.Open(p.tablePath(table))
	if err != nil {
		return nil, errors.IOError("open table file", err)
	}
	defer f.Close()

	buf := make([]byte, PageSize)
	if _, err := f.ReadAt(buf, pageNo*PageSize); err != nil {
		return nil, errors.IOError("read page", err)
	}
	page, err := UnmarshalPage(buf)
	if err != nil {
		return nil, err
	}
	p.log.Debug("Page read", "table", table, "page", pageNo)
	return page, nil
}

// AppendPage appends a page to the table file and returns its page
// number. The table file is created when missing.
func (p *Pager) AppendPage(table string, page *Page) (int64, error) {
	if p.enc != nil {
		return p.appendEncryptedPage(table, page)
	}

	f, err := os.OpenFile(p.tablePath(table), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.IOError("open table file", err)
	}
	defer f.Close()

	if _, err := f.Write(page.Marshal()); err != nil {
		return 0, errors.IOError("append page", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, errors.IOError("stat table file", err)
	}
	pageNo := info.Size()/PageSize - 1
	p.log.Debug("Page appended", "table", table, "page", pageNo)
	return pageNo, nil
}

// FlushPage writes a page back to its position in the table file.
func (p *Pager) FlushPage(table string, pageNo int64, page *Page) error {
	if p.enc != nil {
		return p.flushEncryptedPage(table, pageNo, page)
	}

	f, err := os.OpenFile(p.tablePath(table), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.IOError("open table file", err)
	}
	defer f.Close()

	if _, err := f.WriteAt(page.Marshal(), pageNo*PageSize); err != nil {
		return errors.IOError("flush page", err)
	}
	if err := f.Sync(); err != nil {
		return errors.IOError("sync table file", err)
	}
	p.log.Debug("Page flushed", "table", table, "page", pageNo)
	return nil
}

// DropTable removes a table file. Missing files are not an error.
func (p *Pager) DropTable(table string) error {
	err := os.Remove(p.tablePath(table))
	if err != nil && !os.IsNotExist(err) {
		return errors.IOError("remove table file", err)
	}
	p.mu.Lock()
	delete(p.frames, table)
	p.mu.Unlock()
	p.log.Info("Table dropped", "table", table)
	return nil
}

// ============================================================================
// Encrypted frame layout
// ============================================================================

// frameOffsets returns the byte offset of each frame in an encrypted
// table file, scanning the file once and caching the result. Callers
// hold p.mu.
func (p *Pager) frameOffsets(table string) ([]int64, error) {
	if offsets, ok := p.frames[table]; ok {
		return offsets, nil
	}

	f, err := os.Open(p.tablePath(table))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.IOError("open table file", err)
	}
	defer f.Close()

	var offsets []int64
	var pos int64
	lenBuf := make([]byte, 4)
	for {
		if _, err := f.ReadAt(lenBuf, pos); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.IOError("scan frame header", err)
		}
		offsets = append(offsets, pos)
		pos += 4 + int64(binary.BigEndian.Uint32(lenBuf))
	}
	p.frames[table] = offsets
	return offsets, nil
}

func (p *Pager) readEncryptedPage(table string, pageNo int64) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offsets, err := p.frameOffsets(table)
	if err != nil {
		return nil, err
	}
	if pageNo < 0 || pageNo >= int64(len(offsets)) {
		return nil, errors.IOError("read page",
			fmt.Errorf("page %d of table %q does not exist", pageNo, table))
	}

	f, err := os.Open(p.tablePath(table))
	if err != nil {
		return nil, errors.IOError("open table file", err)
	}
	defer f.Close()

	lenBuf := make([]byte, 4)
	if _, err := f.ReadAt(lenBuf, offsets[pageNo]); err != nil {
		return nil, errors.IOError("read frame header", err)
	}
	ciphertext := make([]byte, binary.BigEndian.Uint32(lenBuf))
	if _, err := f.ReadAt(ciphertext, offsets[pageNo]+4); err != nil {
		return nil, errors.IOError("read frame", err)
	}

	plaintext, err := p.enc.Decrypt(ciphertext)
	if err != nil {
		return nil, errors.PageCorrupt("page decryption failed").WithCause(err)
	}
	return UnmarshalPage(plaintext)
}

func (p *Pager) appendEncryptedPage(table string, page *Page) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offsets, err := p.frameOffsets(table)
	if err != nil {
		return 0, err
	}

	ciphertext, err := p.enc.Encrypt(page.Marshal())
	if err != nil {
		return 0, errors.IOError("encrypt page", err)
	}

	f, err := os.OpenFile(p.tablePath(table), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, errors.IOError("open table file", err)
	}
	defer f.Close()

	var pos int64
	if len(offsets) > 0 {
		info, err := f.Stat()
		if err != nil {
			return 0, errors.IOError("stat table file", err)
		}
		pos = info.Size()
	}
	frame := make([]byte, 4+len(ciphertext))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(ciphertext)))
	copy(frame[4:], ciphertext)
	if _, err := f.Write(frame); err != nil {
		return 0, errors.IOError("append frame", err)
	}

	p.frames[table] = append(offsets, pos)
	pageNo := int64(len(offsets))
	p.log.Debug("Encrypted page appended", "table", table, "page", pageNo)
	return pageNo, nil
}

// flushEncryptedPage rewrites one page of an encrypted table. Frames
// are variable-length, so the whole file after the target frame is
// rewritten.
func (p *Pager) flushEncryptedPage(table string, pageNo int64, page *Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	offsets, err := p.frameOffsets(table)
	if err != nil {
		return err
	}
	if pageNo < 0 || pageNo >= int64(len(offsets)) {
		return errors.IOError("flush page",
			fmt.Errorf("page %d of table %q does not exist", pageNo, table))
	}

	path := p.tablePath(table)
	old, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError("read table file", err)
	}

	ciphertext, err := p.enc.Encrypt(page.Marshal())
	if err != nil {
		return errors.IOError("encrypt page", err)
	}

	// Everything before the frame is kept, the frame is replaced, and
	// the frames after it are shifted.
	start := offsets[pageNo]
	var tail []byte
	if pageNo+1 < int64(len(offsets)) {
		tail = old[offsets[pageNo+1]:]
	}

	rewritten := make([]byte, 0, int(start)+4+len(ciphertext)+len(tail))
	rewritten = append(rewritten, old[:start]...)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(ciphertext)))
	rewritten = append(rewritten, lenBuf[:]...)
	rewritten = append(rewritten, ciphertext...)
	rewritten = append(rewritten, tail...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, rewritten, 0o644); err != nil {
		return errors.IOError("write table file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.IOError("replace table file", err)
	}

	delete(p.frames, table)
	p.log.Debug("Encrypted page flushed", "table", table, "page", pageNo)
	return nil
}
